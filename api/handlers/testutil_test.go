package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"chirp/api/middleware"
	"chirp/db"
	"chirp/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

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
		Name:       username,
		LastActive: time.Now(),
	}
	require.NoError(t, db.ORM.Create(user).Error)
	return user
}

// headerAuth stands in for the token middleware: the acting user is
// taken from the X-User-ID header.
func headerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader("X-User-ID"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.Set("user_id", id)
				c.Next()
				return
			}
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "not authorized"})
		c.Abort()
	}
}

func optionalHeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader("X-User-ID"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.Set("user_id", id)
			}
		}
		c.Next()
	}
}

// testRouter mirrors the public route layout with the header stand-in
// on the routes that normally require a bearer token.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/")

	posts := api.Group("posts")
	{
		posts.POST("", headerAuth(), CreatePost)
		posts.GET("feed", headerAuth(), GetFeed)
		posts.GET("user/:userId", GetUserPosts)
		posts.GET(":id", optionalHeaderAuth(), GetPost)
		posts.GET(":id/replies", GetReplies)
		posts.PUT(":id", headerAuth(), UpdatePost)
		posts.DELETE(":id", headerAuth(), DeletePost)
		posts.POST(":id/like", headerAuth(), LikePost)
		posts.POST(":id/unlike", headerAuth(), UnlikePost)
		posts.POST(":id/repost", headerAuth(), RepostPost)
	}

	users := api.Group("users/", headerAuth())
	{
		users.GET(":id", GetUser)
		users.POST(":id/follow", FollowUser)
		users.POST(":id/unfollow", UnfollowUser)
		users.POST(":id/block", BlockUser)
		users.POST(":id/unblock", UnblockUser)
	}

	notifications := api.Group("notifications", headerAuth())
	{
		notifications.GET("", GetNotifications)
		notifications.GET("unread/count", GetUnreadCount)
		notifications.PATCH("read-all", MarkAllNotificationsRead)
		notifications.PATCH(":id/read", MarkNotificationRead)
		notifications.DELETE("clear-all", ClearAllNotifications)
		notifications.DELETE(":id", DeleteNotification)
	}

	messages := api.Group("messages/", headerAuth())
	{
		messages.POST(":userId", SendMessage)
		messages.GET(":userId", ListConversation)
	}

	return router
}

// authRouter uses the real token middleware for the auth flow tests.
func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/")

	auth := api.Group("auth/")
	{
		auth.POST("register", Register)
		auth.POST("login", Login)
		auth.POST("logout", middleware.AuthRequired(), Logout)
		auth.GET("me", middleware.AuthRequired(), Me)
		auth.PUT("details", middleware.AuthRequired(), UpdateDetails)
		auth.GET("verify-email/:token", VerifyEmail)
	}
	return router
}

func newAuthedRequest(t *testing.T, method, path, token string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func lookupVerifyToken(t *testing.T, userID int64) string {
	t.Helper()
	var user models.User
	require.NoError(t, db.ORM.First(&user, userID).Error)
	return user.EmailVerifyToken
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	HasMore bool            `json:"has_more"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, userID int64, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}
