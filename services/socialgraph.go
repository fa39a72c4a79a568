package services

import (
	"context"
	"fmt"

	"chirp/db"
	"chirp/errs"
	"chirp/models"
)

type SocialGraphService struct{}

func NewSocialGraphService() *SocialGraphService {
	return &SocialGraphService{}
}

// FeedAuthorIDs computes the set of authors whose posts the viewer may
// see in their home feed: following ∪ self − blocked. The set is
// recomputed per request; there is no caching layer, so very large
// follow graphs make this the dominant cost of feed assembly.
func (sg *SocialGraphService) FeedAuthorIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	var exists int64
	err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("id = ?", viewerID).Count(&exists).Error
	if err != nil {
		return nil, errs.Internal("failed to look up viewer", err)
	}
	if exists == 0 {
		return nil, errs.NotFound("user not found")
	}

	var following []int64
	err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("user_id = ?", viewerID).
		Pluck("target_id", &following).Error
	if err != nil {
		return nil, errs.Internal("failed to get following", err)
	}

	var blocked []int64
	err = db.GetReadOnlyDB(ctx).Model(&models.Block{}).
		Where("user_id = ?", viewerID).
		Pluck("target_id", &blocked).Error
	if err != nil {
		return nil, errs.Internal("failed to get blocked users", err)
	}

	blockedSet := make(map[int64]struct{}, len(blocked))
	for _, id := range blocked {
		blockedSet[id] = struct{}{}
	}

	authorIDs := make([]int64, 0, len(following)+1)
	seen := make(map[int64]struct{}, len(following)+1)
	for _, id := range append(following, viewerID) {
		if _, ok := blockedSet[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		authorIDs = append(authorIDs, id)
	}
	return authorIDs, nil
}

// FollowerIDs returns the users following userID. Used to fan new_post
// events out to the rooms of everyone whose feed gains the post.
func (sg *SocialGraphService) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var followers []int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("target_id = ?", userID).
		Pluck("user_id", &followers).Error
	if err != nil {
		return nil, errs.Internal("failed to get followers", err)
	}
	return followers, nil
}

func (sg *SocialGraphService) userExists(ctx context.Context, userID int64) (bool, error) {
	var cnt int64
	err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&cnt).Error
	if err != nil {
		return false, errs.Internal("failed to look up user", err)
	}
	return cnt > 0, nil
}

// Follow adds a follow edge and notifies the target.
func (sg *SocialGraphService) Follow(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return errs.Validation("cannot follow yourself")
	}
	ok, err := sg.userExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("user not found")
	}

	var existing int64
	err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Count(&existing).Error
	if err != nil {
		return errs.Internal("failed to check follow", err)
	}
	if existing > 0 {
		return errs.Conflict("already following this user")
	}

	if err := db.GetWriteDB(ctx).Create(&models.Follow{UserID: userID, TargetID: targetID}).Error; err != nil {
		return errs.Internal("failed to create follow", err)
	}

	notificationService.Create(ctx, models.Notification{
		RecipientID: targetID,
		SenderID:    userID,
		Type:        models.NotificationFollow,
	})
	return nil
}

func (sg *SocialGraphService) Unfollow(ctx context.Context, userID, targetID int64) error {
	res := db.GetWriteDB(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return errs.Internal("failed to delete follow", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Conflict("not following this user")
	}
	return nil
}

// Block adds a block edge and removes any follow edges between the two
// users, in both directions.
func (sg *SocialGraphService) Block(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return errs.Validation("cannot block yourself")
	}
	ok, err := sg.userExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("user not found")
	}

	var existing int64
	err = db.GetReadOnlyDB(ctx).Model(&models.Block{}).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Count(&existing).Error
	if err != nil {
		return errs.Internal("failed to check block", err)
	}
	if existing > 0 {
		return errs.Conflict("user already blocked")
	}

	if err := db.GetWriteDB(ctx).Create(&models.Block{UserID: userID, TargetID: targetID}).Error; err != nil {
		return errs.Internal("failed to create block", err)
	}
	err = db.GetWriteDB(ctx).
		Where("(user_id = ? AND target_id = ?) OR (user_id = ? AND target_id = ?)",
			userID, targetID, targetID, userID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return errs.Internal("failed to remove follow edges", err)
	}
	return nil
}

func (sg *SocialGraphService) Unblock(ctx context.Context, userID, targetID int64) error {
	res := db.GetWriteDB(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&models.Block{})
	if res.Error != nil {
		return errs.Internal("failed to delete block", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Conflict(fmt.Sprintf("user %d is not blocked", targetID))
	}
	return nil
}
