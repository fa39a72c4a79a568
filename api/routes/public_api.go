package routes

import (
	"chirp/api/handlers"
	"chirp/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	api := router.Group("/api/")

	auth := api.Group("auth/")
	{
		auth.POST("register", handlers.Register)
		auth.POST("login", handlers.Login)
		auth.POST("logout", middleware.AuthRequired(), handlers.Logout)
		auth.GET("me", middleware.AuthRequired(), handlers.Me)
		auth.PUT("details", middleware.AuthRequired(), handlers.UpdateDetails)
		auth.GET("verify-email/:token", handlers.VerifyEmail)
	}

	posts := api.Group("posts/")
	{
		posts.POST("", middleware.AuthRequired(), handlers.CreatePost)
		posts.GET("feed", middleware.AuthRequired(), handlers.GetFeed)
		posts.GET("user/:userId", handlers.GetUserPosts)
		posts.GET(":id", middleware.OptionalAuth(), handlers.GetPost)
		posts.GET(":id/replies", handlers.GetReplies)
		posts.PUT(":id", middleware.AuthRequired(), handlers.UpdatePost)
		posts.DELETE(":id", middleware.AuthRequired(), handlers.DeletePost)
		posts.POST(":id/like", middleware.AuthRequired(), handlers.LikePost)
		posts.POST(":id/unlike", middleware.AuthRequired(), handlers.UnlikePost)
		posts.POST(":id/repost", middleware.AuthRequired(), handlers.RepostPost)
	}

	users := api.Group("users/", middleware.AuthRequired())
	{
		users.GET(":id", handlers.GetUser)
		users.POST(":id/follow", handlers.FollowUser)
		users.POST(":id/unfollow", handlers.UnfollowUser)
		users.POST(":id/block", handlers.BlockUser)
		users.POST(":id/unblock", handlers.UnblockUser)
	}

	notifications := api.Group("notifications/", middleware.AuthRequired())
	{
		notifications.GET("", handlers.GetNotifications)
		notifications.GET("unread/count", handlers.GetUnreadCount)
		notifications.PATCH("read-all", handlers.MarkAllNotificationsRead)
		notifications.PATCH(":id/read", handlers.MarkNotificationRead)
		notifications.DELETE("clear-all", handlers.ClearAllNotifications)
		notifications.DELETE(":id", handlers.DeleteNotification)
	}

	messages := api.Group("messages/", middleware.AuthRequired())
	{
		messages.POST(":userId", handlers.SendMessage)
		messages.GET(":userId", handlers.ListConversation)
	}

	router.GET("/ws", handlers.WSHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return api
}
