package services

import (
	"fmt"
	"testing"
	"time"

	"chirp/db"
	"chirp/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB connects the in-memory database and wipes all tables so
// every test starts from a clean slate.
func setupTestDB(t *testing.T) {
	t.Helper()
	if db.ORM == nil {
		require.NoError(t, db.ConnectTestDB())
	}
	for _, model := range []interface{}{
		&models.PostLike{},
		&models.Notification{},
		&models.Message{},
		&models.Post{},
		&models.Follow{},
		&models.Block{},
		&models.User{},
	} {
		err := db.ORM.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
		require.NoError(t, err)
	}
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:   username,
		Email:      fmt.Sprintf("%s_%d@example.com", username, time.Now().UnixNano()),
		Password:   "irrelevant",
		Name:       gofakeit.Name(),
		LastActive: time.Now(),
	}
	require.NoError(t, db.ORM.Create(user).Error)
	return user
}

func createFollow(t *testing.T, followerID, targetID int64) {
	t.Helper()
	require.NoError(t, db.ORM.Create(&models.Follow{UserID: followerID, TargetID: targetID}).Error)
}

func createBlock(t *testing.T, userID, targetID int64) {
	t.Helper()
	require.NoError(t, db.ORM.Create(&models.Block{UserID: userID, TargetID: targetID}).Error)
}
