package services

import (
	"context"
	"log"
	"time"
	"unicode/utf8"

	"chirp/db"
	"chirp/errs"
	"chirp/models"

	"gorm.io/gorm"
)

const (
	MaxMediaPerPost = 4
	MaxPollOptions  = 4
)

type PostService struct {
	socialGraph *SocialGraphService
}

func NewPostService() *PostService {
	return &PostService{socialGraph: NewSocialGraphService()}
}

type CreatePostInput struct {
	Content      string            `json:"content"`
	Media        []string          `json:"media"`
	IsReply      bool              `json:"is_reply"`
	ParentID     *int64            `json:"parent_post_id"`
	IsQuote      bool              `json:"is_quote"`
	QuotedID     *int64            `json:"quoted_post_id"`
	Poll         *models.Poll      `json:"poll"`
	Visibility   models.Visibility `json:"visibility"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
}

// CreatePost validates, extracts hashtags, persists, resolves mentions
// into notifications and fans the post out to follower rooms. A post
// scheduled for the future stays invisible until the timestamp passes,
// so it is not announced.
func (ps *PostService) CreatePost(ctx context.Context, authorID int64, in CreatePostInput) (*models.PostView, error) {
	if in.Content == "" {
		return nil, errs.Validation("post content is required")
	}
	if utf8.RuneCountInString(in.Content) > 280 {
		return nil, errs.Validation("post cannot exceed 280 characters")
	}
	if len(in.Media) > MaxMediaPerPost {
		return nil, errs.Validation("a post can carry at most 4 media attachments")
	}
	switch in.Visibility {
	case "":
		in.Visibility = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityMentioned:
	default:
		return nil, errs.Validation("invalid visibility")
	}
	if in.Poll != nil {
		if len(in.Poll.Options) < 2 || len(in.Poll.Options) > MaxPollOptions {
			return nil, errs.Validation("a poll needs between 2 and 4 options")
		}
		for _, opt := range in.Poll.Options {
			if opt.Text == "" {
				return nil, errs.Validation("poll options cannot be empty")
			}
		}
	}

	post := models.Post{
		AuthorID:     authorID,
		Content:      in.Content,
		Media:        in.Media,
		Hashtags:     ExtractHashtags(in.Content),
		Poll:         in.Poll,
		Visibility:   in.Visibility,
		ScheduledFor: in.ScheduledFor,
	}

	if in.IsReply {
		if in.ParentID == nil {
			return nil, errs.Validation("a reply must reference a parent post")
		}
		parent, err := ps.getPostRow(ctx, *in.ParentID, authorID)
		if err != nil {
			return nil, err
		}
		post.IsReply = true
		post.ParentID = &parent.ID
	}
	if in.IsQuote {
		if in.QuotedID == nil {
			return nil, errs.Validation("a quote must reference a post")
		}
		quoted, err := ps.getPostRow(ctx, *in.QuotedID, authorID)
		if err != nil {
			return nil, err
		}
		post.IsQuote = true
		post.QuotedID = &quoted.ID
	}

	if err := db.GetWriteDB(ctx).Create(&post).Error; err != nil {
		return nil, errs.Internal("failed to create post", err)
	}

	ps.notifyMentions(ctx, &post)
	if post.IsReply && post.ParentID != nil {
		if parent, err := ps.getPostRow(ctx, *post.ParentID, authorID); err == nil {
			notificationService.Create(ctx, models.Notification{
				RecipientID: parent.AuthorID,
				SenderID:    authorID,
				Type:        models.NotificationComment,
				PostID:      &parent.ID,
				CommentID:   &post.ID,
			})
		}
	}

	views, err := ps.buildPostViews(ctx, []models.Post{post})
	if err != nil {
		return nil, err
	}
	view := &views[0]

	if !scheduledInFuture(&post) && !post.IsReply {
		ps.announceNewPost(ctx, view)
	}
	return view, nil
}

// announceNewPost pushes a new_post event to the author's room and the
// rooms of everyone following the author.
func (ps *PostService) announceNewPost(ctx context.Context, view *models.PostView) {
	followers, err := ps.socialGraph.FollowerIDs(ctx, view.Author.ID)
	if err != nil {
		log.Printf("failed to fan out post %d: %v", view.ID, err)
		return
	}
	for _, id := range append(followers, view.Author.ID) {
		PushToUser(ctx, id, "new_post", view)
	}
}

func (ps *PostService) notifyMentions(ctx context.Context, post *models.Post) {
	names := ExtractMentions(post.Content)
	if len(names) == 0 {
		return
	}
	var mentioned []models.User
	if err := db.GetReadOnlyDB(ctx).Where("username IN ?", names).Find(&mentioned).Error; err != nil {
		log.Printf("failed to resolve mentions for post %d: %v", post.ID, err)
		return
	}
	for _, u := range mentioned {
		notificationService.Create(ctx, models.Notification{
			RecipientID: u.ID,
			SenderID:    post.AuthorID,
			Type:        models.NotificationMention,
			PostID:      &post.ID,
		})
	}
}

// visibleTimeline applies the shared feed predicate: top-level posts
// only, no soft-deleted rows, no posts still scheduled for the future.
func visibleTimeline(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.
		Where("is_reply = ?", false).
		Where("is_deleted = ?", false).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now)
}

// GetFeed assembles one page of the viewer's home feed. Pagination is
// offset-based and not snapshot-isolated: concurrent inserts can shift
// the window between pages, which is accepted best-effort behavior.
func (ps *PostService) GetFeed(ctx context.Context, viewerID int64, page, limit int) (*models.FeedResponse, error) {
	page, limit = normalizePage(page, limit)

	authorIDs, err := ps.socialGraph.FeedAuthorIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return &models.FeedResponse{Posts: []models.PostView{}}, nil
	}

	var rows []models.Post
	err = visibleTimeline(db.GetReadOnlyDB(ctx), time.Now()).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit + 1). // probe one row past the page for has_more
		Find(&rows).Error
	if err != nil {
		return nil, errs.Internal("failed to query feed", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	views, err := ps.buildPostViews(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &models.FeedResponse{Posts: views, HasMore: hasMore}, nil
}

// GetUserPosts is the public timeline of one user: same predicate as
// the feed with the author fixed and no social-graph filtering.
func (ps *PostService) GetUserPosts(ctx context.Context, userID int64, page, limit int) (*models.FeedResponse, error) {
	page, limit = normalizePage(page, limit)

	var exists int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, errs.Internal("failed to look up user", err)
	}
	if exists == 0 {
		return nil, errs.NotFound("user not found")
	}

	var rows []models.Post
	err := visibleTimeline(db.GetReadOnlyDB(ctx), time.Now()).
		Where("author_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, errs.Internal("failed to query user posts", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	views, err := ps.buildPostViews(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &models.FeedResponse{Posts: views, HasMore: hasMore}, nil
}

// GetPost fetches one post by id. A soft-deleted post is Gone; a post
// scheduled in the future is reported as NotFound to anyone but its
// author, deliberately indistinguishable from absence so unpublished
// content does not leak. viewerID 0 means anonymous.
func (ps *PostService) GetPost(ctx context.Context, postID, viewerID int64) (*models.PostView, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFound("post not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to get post", err)
	}
	if post.IsDeleted {
		return nil, errs.Gone("post has been deleted")
	}
	if scheduledInFuture(&post) && post.AuthorID != viewerID {
		return nil, errs.NotFound("post not found")
	}

	views, err := ps.buildPostViews(ctx, []models.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// GetReplies lists the non-deleted replies under a post.
func (ps *PostService) GetReplies(ctx context.Context, postID int64, page, limit int) (*models.FeedResponse, error) {
	page, limit = normalizePage(page, limit)

	if _, err := ps.getPostRow(ctx, postID, 0); err != nil {
		return nil, err
	}

	var rows []models.Post
	err := db.GetReadOnlyDB(ctx).
		Where("parent_post_id = ? AND is_reply = ? AND is_deleted = ?", postID, true, false).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, errs.Internal("failed to query replies", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	views, err := ps.buildPostViews(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &models.FeedResponse{Posts: views, HasMore: hasMore}, nil
}

// Like appends the user to the post's likes set. A duplicate like is a
// Conflict; idempotence only holds across an intervening unlike.
func (ps *PostService) Like(ctx context.Context, postID, userID int64) error {
	post, err := ps.getPostRow(ctx, postID, userID)
	if err != nil {
		return err
	}

	var existing int64
	err = db.GetReadOnlyDB(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&existing).Error
	if err != nil {
		return errs.Internal("failed to check like", err)
	}
	if existing > 0 {
		return errs.Conflict("post already liked")
	}

	if err := db.GetWriteDB(ctx).Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
		return errs.Internal("failed to like post", err)
	}

	notificationService.Create(ctx, models.Notification{
		RecipientID: post.AuthorID,
		SenderID:    userID,
		Type:        models.NotificationLike,
		PostID:      &post.ID,
	})
	if post.AuthorID != userID {
		PushToUser(ctx, post.AuthorID, "post_liked", map[string]int64{
			"post_id": post.ID,
			"user_id": userID,
		})
	}
	return nil
}

func (ps *PostService) Unlike(ctx context.Context, postID, userID int64) error {
	if _, err := ps.getPostRow(ctx, postID, userID); err != nil {
		return err
	}
	res := db.GetWriteDB(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if res.Error != nil {
		return errs.Internal("failed to unlike post", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Conflict("post not liked yet")
	}
	return nil
}

// Repost creates a contentless post referencing the original. The
// duplicate check is an existence query, not a unique index, so
// concurrent duplicate submissions race between check and create; a
// known weakness of the design, kept as observed.
func (ps *PostService) Repost(ctx context.Context, postID, userID int64) (*models.PostView, error) {
	original, err := ps.getPostRow(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	var existing int64
	err = db.GetReadOnlyDB(ctx).Model(&models.Post{}).
		Where("author_id = ? AND original_post_id = ? AND is_repost = ? AND is_deleted = ?",
			userID, postID, true, false).
		Count(&existing).Error
	if err != nil {
		return nil, errs.Internal("failed to check repost", err)
	}
	if existing > 0 {
		return nil, errs.Conflict("you have already reposted this post")
	}

	repost := models.Post{
		AuthorID:   userID,
		IsRepost:   true,
		OriginalID: &original.ID,
		Visibility: models.VisibilityPublic,
	}
	if err := db.GetWriteDB(ctx).Create(&repost).Error; err != nil {
		return nil, errs.Internal("failed to create repost", err)
	}

	notificationService.Create(ctx, models.Notification{
		RecipientID: original.AuthorID,
		SenderID:    userID,
		Type:        models.NotificationRepost,
		PostID:      &original.ID,
	})

	views, err := ps.buildPostViews(ctx, []models.Post{repost})
	if err != nil {
		return nil, err
	}
	view := &views[0]

	ps.announceNewPost(ctx, view)
	if original.AuthorID != userID {
		PushToUser(ctx, original.AuthorID, "post_reposted", map[string]int64{
			"post_id": original.ID,
			"user_id": userID,
		})
	}
	return view, nil
}

// Delete soft-deletes the post and best-effort removes its media. A
// failure to remove media is logged, never surfaced: the soft delete
// already succeeded. Replies are left in place under the deleted
// parent.
func (ps *PostService) Delete(ctx context.Context, postID, requesterID int64) error {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if err == gorm.ErrRecordNotFound {
		return errs.NotFound("post not found")
	}
	if err != nil {
		return errs.Internal("failed to get post", err)
	}
	if post.IsDeleted {
		return errs.Gone("post has been deleted")
	}

	if post.AuthorID != requesterID {
		requester, err := userService.Get(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin {
			return errs.Forbidden("not authorized to delete this post")
		}
	}

	now := time.Now()
	err = db.GetWriteDB(ctx).Model(&models.Post{}).Where("id = ?", postID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	if err != nil {
		return errs.Internal("failed to delete post", err)
	}

	if Media != nil {
		for _, url := range post.Media {
			if err := Media.Delete(url); err != nil {
				log.Printf("failed to delete media %s of post %d: %v", url, postID, err)
			}
		}
	}
	return nil
}

type UpdatePostInput struct {
	Content      string     `json:"content"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// Update edits a post while it is still in its scheduled, unpublished
// window. Once scheduled_for has passed, or was never set, the content
// is immutable.
func (ps *PostService) Update(ctx context.Context, postID, requesterID int64, in UpdatePostInput) (*models.PostView, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFound("post not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to get post", err)
	}
	if post.IsDeleted {
		return nil, errs.Gone("post has been deleted")
	}
	if post.AuthorID != requesterID {
		return nil, errs.Forbidden("not authorized to update this post")
	}
	if !scheduledInFuture(&post) {
		return nil, errs.Validation("published posts cannot be edited")
	}
	if in.Content == "" {
		return nil, errs.Validation("post content is required")
	}
	if utf8.RuneCountInString(in.Content) > 280 {
		return nil, errs.Validation("post cannot exceed 280 characters")
	}

	post.Content = in.Content
	post.Hashtags = ExtractHashtags(in.Content)
	if in.ScheduledFor != nil {
		post.ScheduledFor = in.ScheduledFor
	}
	if err := db.GetWriteDB(ctx).Save(&post).Error; err != nil {
		return nil, errs.Internal("failed to update post", err)
	}

	view, err := ps.GetPost(ctx, postID, requesterID)
	if err != nil {
		return nil, err
	}
	PushToUser(ctx, requesterID, "post_update", view)
	return view, nil
}

// getPostRow loads a live post or translates its state into the error
// taxonomy: absent rows are NotFound, soft-deleted rows are Gone. A
// post still scheduled for the future reads as NotFound to anyone but
// its author, so drafts cannot be probed through likes or reposts
// either.
func (ps *PostService) getPostRow(ctx context.Context, postID, viewerID int64) (*models.Post, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFound("post not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to get post", err)
	}
	if post.IsDeleted {
		return nil, errs.Gone("post has been deleted")
	}
	if scheduledInFuture(&post) && post.AuthorID != viewerID {
		return nil, errs.NotFound("post not found")
	}
	return &post, nil
}

func scheduledInFuture(post *models.Post) bool {
	return post.ScheduledFor != nil && post.ScheduledFor.After(time.Now())
}

// buildPostViews denormalizes rows with author profiles, one-level
// embeds of originals/quotes and engagement counts, in batch.
func (ps *PostService) buildPostViews(ctx context.Context, rows []models.Post) ([]models.PostView, error) {
	if len(rows) == 0 {
		return []models.PostView{}, nil
	}

	postIDs := make([]int64, 0, len(rows))
	refIDs := make([]int64, 0)
	authorIDs := make([]int64, 0, len(rows))
	for _, p := range rows {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.AuthorID)
		if p.OriginalID != nil {
			refIDs = append(refIDs, *p.OriginalID)
		}
		if p.QuotedID != nil {
			refIDs = append(refIDs, *p.QuotedID)
		}
	}

	refPosts := make(map[int64]models.Post, len(refIDs))
	if len(refIDs) > 0 {
		var refs []models.Post
		if err := db.GetReadOnlyDB(ctx).Where("id IN ?", refIDs).Find(&refs).Error; err != nil {
			return nil, errs.Internal("failed to load referenced posts", err)
		}
		for _, r := range refs {
			refPosts[r.ID] = r
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authors, err := loadUserSummaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	likeCounts, err := countByColumn(ctx, &models.PostLike{}, "post_id", postIDs)
	if err != nil {
		return nil, err
	}
	repostCounts, err := repostCountsFor(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	embed := func(id *int64) *models.EmbeddedPost {
		if id == nil {
			return nil
		}
		ref, ok := refPosts[*id]
		if !ok {
			return nil
		}
		return &models.EmbeddedPost{
			ID:        ref.ID,
			Author:    authors[ref.AuthorID],
			Content:   ref.Content,
			Media:     ref.Media,
			IsDeleted: ref.IsDeleted,
			CreatedAt: ref.CreatedAt,
		}
	}

	views := make([]models.PostView, 0, len(rows))
	for _, p := range rows {
		views = append(views, models.PostView{
			ID:           p.ID,
			Author:       authors[p.AuthorID],
			Content:      p.Content,
			Media:        p.Media,
			Hashtags:     p.Hashtags,
			Poll:         p.Poll,
			IsRepost:     p.IsRepost,
			IsReply:      p.IsReply,
			IsQuote:      p.IsQuote,
			IsPinned:     p.IsPinned,
			OriginalPost: embed(p.OriginalID),
			QuotedPost:   embed(p.QuotedID),
			LikeCount:    likeCounts[p.ID],
			RepostCount:  repostCounts[p.ID],
			Visibility:   p.Visibility,
			ScheduledFor: p.ScheduledFor,
			CreatedAt:    p.CreatedAt,
		})
	}
	return views, nil
}

type countRow struct {
	Key   int64
	Count int64
}

func countByColumn(ctx context.Context, model interface{}, column string, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var counts []countRow
	err := db.GetReadOnlyDB(ctx).Model(model).
		Select(column+" AS key, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&counts).Error
	if err != nil {
		return nil, errs.Internal("failed to count "+column, err)
	}
	for _, c := range counts {
		out[c.Key] = c.Count
	}
	return out, nil
}

func repostCountsFor(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var counts []countRow
	err := db.GetReadOnlyDB(ctx).Model(&models.Post{}).
		Select("original_post_id AS key, COUNT(*) AS count").
		Where("original_post_id IN ? AND is_repost = ? AND is_deleted = ?", postIDs, true, false).
		Group("original_post_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errs.Internal("failed to count reposts", err)
	}
	for _, c := range counts {
		out[c.Key] = c.Count
	}
	return out, nil
}
