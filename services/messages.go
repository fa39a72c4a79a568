package services

import (
	"context"
	"time"

	"chirp/db"
	"chirp/errs"
	"chirp/models"

	"gorm.io/gorm"
)

type MessageService struct{}

func NewMessageService() *MessageService {
	return &MessageService{}
}

// Send persists a direct message. Live delivery is not attempted here:
// the recipient picks it up on the next fetch, only typing and read
// receipts travel over the real-time channel.
func (ms *MessageService) Send(ctx context.Context, fromID, toID int64, text string) (*models.Message, error) {
	if text == "" {
		return nil, errs.Validation("message text is required")
	}
	if fromID == toID {
		return nil, errs.Validation("cannot message yourself")
	}
	var exists int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("id = ?", toID).Count(&exists).Error; err != nil {
		return nil, errs.Internal("failed to look up recipient", err)
	}
	if exists == 0 {
		return nil, errs.NotFound("user not found")
	}

	msg := models.Message{
		FromUserID: fromID,
		ToUserID:   toID,
		Text:       text,
	}
	if err := db.GetWriteDB(ctx).Create(&msg).Error; err != nil {
		return nil, errs.Internal("failed to send message", err)
	}
	return &msg, nil
}

// ListConversation pages through the dialog between two users, newest
// first.
func (ms *MessageService) ListConversation(ctx context.Context, userID, peerID int64, page, limit int) (*models.MessageListResponse, error) {
	page, limit = normalizePage(page, limit)

	var rows []models.Message
	err := db.GetReadOnlyDB(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, errs.Internal("failed to list messages", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return &models.MessageListResponse{Messages: rows, HasMore: hasMore}, nil
}

// MarkRead flips the read flag and pushes a read receipt to the
// sender's room.
func (ms *MessageService) MarkRead(ctx context.Context, userID, messageID int64) error {
	var msg models.Message
	err := db.GetReadOnlyDB(ctx).First(&msg, messageID).Error
	if err == gorm.ErrRecordNotFound {
		return errs.NotFound("message not found")
	}
	if err != nil {
		return errs.Internal("failed to get message", err)
	}
	if msg.ToUserID != userID {
		return errs.Forbidden("not your message")
	}
	if msg.IsRead {
		return nil
	}

	err = db.GetWriteDB(ctx).Model(&models.Message{}).Where("id = ?", messageID).
		Update("is_read", true).Error
	if err != nil {
		return errs.Internal("failed to mark message read", err)
	}

	PushToUser(ctx, msg.FromUserID, "message_read_receipt", map[string]interface{}{
		"message_id":      msg.ID,
		"user_id":         userID,
		"conversation_id": userID,
		"read_at":         time.Now(),
	})
	return nil
}
