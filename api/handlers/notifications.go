package handlers

import (
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var notificationService = services.NewNotificationService()

func GetNotifications(c *gin.Context) {
	page, limit := pageParams(c)

	list, err := notificationService.List(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, list.Notifications, len(list.Notifications), list.HasMore)
}

func GetUnreadCount(c *gin.Context) {
	count, err := notificationService.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": count})
}

func MarkNotificationRead(c *gin.Context) {
	notificationID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := notificationService.MarkRead(c.Request.Context(), currentUserID(c), notificationID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func MarkAllNotificationsRead(c *gin.Context) {
	if err := notificationService.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func DeleteNotification(c *gin.Context) {
	notificationID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := notificationService.Delete(c.Request.Context(), currentUserID(c), notificationID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func ClearAllNotifications(c *gin.Context) {
	if err := notificationService.ClearAll(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}
