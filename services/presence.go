package services

import (
	"context"
	"fmt"
	"log"
	"time"
)

const presenceKeyPrefix = "presence:"

// PresenceTTL bounds how stale a presence key can get. Live sessions
// keep refreshing it; after a process crash the key simply expires.
const PresenceTTL = 2 * time.Minute

func presenceKey(userID int64) string {
	return fmt.Sprintf("%s%d", presenceKeyPrefix, userID)
}

// MarkOnline records the user as online. Presence lives only in Redis,
// never in process memory.
func MarkOnline(userID int64) {
	if RedisClient == nil {
		return
	}
	ctx := context.Background()
	if err := RedisClient.Set(ctx, presenceKey(userID), time.Now().Unix(), PresenceTTL).Err(); err != nil {
		log.Printf("failed to mark user %d online: %v", userID, err)
	}
}

// KeepPresenceAlive refreshes the presence key until done is closed.
// Run per connection; sibling sessions refreshing the same key are
// harmless.
func KeepPresenceAlive(userID int64, done <-chan struct{}) {
	ticker := time.NewTicker(PresenceTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			MarkOnline(userID)
		}
	}
}

func MarkOffline(userID int64) {
	if RedisClient == nil {
		return
	}
	ctx := context.Background()
	if err := RedisClient.Del(ctx, presenceKey(userID)).Err(); err != nil {
		log.Printf("failed to mark user %d offline: %v", userID, err)
	}
}

func IsOnline(ctx context.Context, userID int64) bool {
	if RedisClient == nil {
		return false
	}
	n, err := RedisClient.Exists(ctx, presenceKey(userID)).Result()
	return err == nil && n > 0
}
