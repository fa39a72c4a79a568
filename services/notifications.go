package services

import (
	"context"
	"log"

	"chirp/db"
	"chirp/errs"
	"chirp/models"

	"gorm.io/gorm"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

var notificationService = NewNotificationService()

// Create persists the notification and pushes it to the recipient's
// room fire-and-forget. Self-notifications are dropped: a user acting
// on their own content never notifies themselves. Re-triggering the
// same interaction creates a new instance, a read one is never
// resurrected.
func (ns *NotificationService) Create(ctx context.Context, n models.Notification) {
	if n.RecipientID == n.SenderID {
		return
	}
	if err := db.GetWriteDB(ctx).Create(&n).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", n.RecipientID, err)
		return
	}
	IncrUnread(ctx, n.RecipientID)

	view := models.NotificationView{Notification: n}
	var sender models.User
	if err := db.GetReadOnlyDB(ctx).First(&sender, n.SenderID).Error; err == nil {
		view.Sender = sender.Summary()
	}
	PushToUser(ctx, n.RecipientID, "notification", view)
}

func (ns *NotificationService) List(ctx context.Context, userID int64, page, limit int) (*models.NotificationListResponse, error) {
	page, limit = normalizePage(page, limit)

	var rows []models.Notification
	err := db.GetReadOnlyDB(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, errs.Internal("failed to list notifications", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	senderIDs := make([]int64, 0, len(rows))
	for _, n := range rows {
		senderIDs = append(senderIDs, n.SenderID)
	}
	senders, err := loadUserSummaries(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, models.NotificationView{Notification: n, Sender: senders[n.SenderID]})
	}
	return &models.NotificationListResponse{Notifications: views, HasMore: hasMore}, nil
}

// UnreadCount reads the authoritative count from the store and
// refreshes the cached counter on the way out.
func (ns *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errs.Internal("failed to count unread notifications", err)
	}
	SetUnread(ctx, userID, count)
	return count, nil
}

// MarkRead transitions one notification to read. Read is terminal:
// repeating the call is a no-op and the unread counter never goes
// negative.
func (ns *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	var n models.Notification
	err := db.GetReadOnlyDB(ctx).First(&n, notificationID).Error
	if err == gorm.ErrRecordNotFound {
		return errs.NotFound("notification not found")
	}
	if err != nil {
		return errs.Internal("failed to get notification", err)
	}
	if n.RecipientID != userID {
		return errs.Forbidden("not your notification")
	}
	if n.Read {
		return nil
	}

	res := db.GetWriteDB(ctx).Model(&models.Notification{}).
		Where("id = ? AND read = ?", notificationID, false).
		Update("read", true)
	if res.Error != nil {
		return errs.Internal("failed to mark notification read", res.Error)
	}
	DecrUnread(ctx, userID, res.RowsAffected)
	return nil
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	err := db.GetWriteDB(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return errs.Internal("failed to mark notifications read", err)
	}
	SetUnread(ctx, userID, 0)
	return nil
}

// Delete hard-deletes one notification by explicit user action, the
// only path that removes rows.
func (ns *NotificationService) Delete(ctx context.Context, userID, notificationID int64) error {
	var n models.Notification
	err := db.GetReadOnlyDB(ctx).First(&n, notificationID).Error
	if err == gorm.ErrRecordNotFound {
		return errs.NotFound("notification not found")
	}
	if err != nil {
		return errs.Internal("failed to get notification", err)
	}
	if n.RecipientID != userID {
		return errs.Forbidden("not your notification")
	}

	if err := db.GetWriteDB(ctx).Delete(&models.Notification{}, notificationID).Error; err != nil {
		return errs.Internal("failed to delete notification", err)
	}
	if !n.Read {
		DecrUnread(ctx, userID, 1)
	}
	return nil
}

func (ns *NotificationService) ClearAll(ctx context.Context, userID int64) error {
	err := db.GetWriteDB(ctx).
		Where("recipient_id = ?", userID).
		Delete(&models.Notification{}).Error
	if err != nil {
		return errs.Internal("failed to clear notifications", err)
	}
	SetUnread(ctx, userID, 0)
	return nil
}

func loadUserSummaries(ctx context.Context, ids []int64) (map[int64]models.UserSummary, error) {
	out := make(map[int64]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.GetReadOnlyDB(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errs.Internal("failed to load users", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
