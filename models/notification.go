package models

import "time"

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationRepost  NotificationType = "repost"
	NotificationSystem  NotificationType = "system"
)

// Notification is created on a triggering mutation by a party other
// than the recipient and mutated only by read-state transitions.
type Notification struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64            `gorm:"index:notif_recipient_created_idx" json:"recipient_id"`
	SenderID    int64            `gorm:"index" json:"sender_id"`
	Type        NotificationType `gorm:"size:16" json:"type"`
	PostID      *int64           `json:"post_id,omitempty"`
	CommentID   *int64           `json:"comment_id,omitempty"`
	Read        bool             `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time        `gorm:"index:notif_recipient_created_idx" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationView embeds the sender's public profile for rendering.
type NotificationView struct {
	Notification
	Sender UserSummary `json:"sender"`
}

type NotificationListResponse struct {
	Notifications []NotificationView `json:"notifications"`
	HasMore       bool               `json:"has_more"`
}
