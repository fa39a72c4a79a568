package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FromUserID int64     `gorm:"column:from_user_id;index" json:"from_id"`
	ToUserID   int64     `gorm:"column:to_user_id;index" json:"to_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageListResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
