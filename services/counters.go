package services

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

const unreadKeyPrefix = "notif_unread:"

// Decrement with a floor at zero, so repeated mark-read calls can
// never drive the counter negative.
var decrFloorScript = redis.NewScript(`
	local v = redis.call('DECRBY', KEYS[1], ARGV[1])
	if v < 0 then
		redis.call('SET', KEYS[1], 0)
		v = 0
	end
	return v
`)

func unreadKey(userID int64) string {
	return fmt.Sprintf("%s%d", unreadKeyPrefix, userID)
}

// IncrUnread bumps the cached unread-notification counter. The counter
// is a read-side optimization: the store row count stays authoritative.
func IncrUnread(ctx context.Context, userID int64) {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Incr(ctx, unreadKey(userID)).Err(); err != nil {
		log.Printf("failed to increment unread counter for user %d: %v", userID, err)
	}
}

func DecrUnread(ctx context.Context, userID int64, by int64) {
	if RedisClient == nil || by <= 0 {
		return
	}
	if err := decrFloorScript.Run(ctx, RedisClient, []string{unreadKey(userID)}, by).Err(); err != nil {
		log.Printf("failed to decrement unread counter for user %d: %v", userID, err)
	}
}

func SetUnread(ctx context.Context, userID int64, count int64) {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Set(ctx, unreadKey(userID), count, 0).Err(); err != nil {
		log.Printf("failed to set unread counter for user %d: %v", userID, err)
	}
}

// CachedUnread returns the cached counter. The second return reports
// whether a cached value was present.
func CachedUnread(ctx context.Context, userID int64) (int64, bool) {
	if RedisClient == nil {
		return 0, false
	}
	val, err := RedisClient.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return val, true
}
