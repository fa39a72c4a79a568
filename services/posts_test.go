package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"chirp/db"
	"chirp/errs"
	"chirp/models"

	"github.com/stretchr/testify/require"
)

func TestCreatePostValidation(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")

	_, err := ps.CreatePost(ctx, author.ID, CreatePostInput{})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{Content: strings.Repeat("x", 281)})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	// 280 code points exactly is fine, even multi-byte ones
	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{Content: strings.Repeat("ё", 280)})
	require.NoError(t, err)

	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content: "too much media",
		Media:   []string{"a", "b", "c", "d", "e"},
	})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "x", Visibility: "friends-only"})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestCreatePostHashtagRoundTrip(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")

	created, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "shipping #Go code #go #Fast"})
	require.NoError(t, err)

	got, err := ps.GetPost(ctx, created.ID, author.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"go", "fast"}, got.Hashtags)
	require.Equal(t, author.ID, got.Author.ID)
	require.Equal(t, models.VisibilityPublic, got.Visibility)
}

func TestCreatePostWithPoll(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "pollster")

	expires := time.Now().Add(24 * time.Hour)
	created, err := ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content: "pick one",
		Poll: &models.Poll{
			Options: []models.PollOption{
				{Text: "tabs"},
				{Text: "spaces"},
			},
			ExpiresAt: &expires,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Poll)

	got, err := ps.GetPost(ctx, created.ID, author.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Poll)
	require.Len(t, got.Poll.Options, 2)
	require.Equal(t, "tabs", got.Poll.Options[0].Text)
	require.Equal(t, "spaces", got.Poll.Options[1].Text)
	require.NotNil(t, got.Poll.ExpiresAt)
}

func TestCreatePostPollValidation(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "pollster")

	_, err := ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content: "pick one",
		Poll:    &models.Poll{Options: []models.PollOption{{Text: "only"}}},
	})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content: "pick one",
		Poll: &models.Poll{Options: []models.PollOption{
			{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "e"},
		}},
	})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content: "pick one",
		Poll:    &models.Poll{Options: []models.PollOption{{Text: "a"}, {Text: ""}}},
	})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestFeedScenario(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	userA := createTestUser(t, "usera")
	userB := createTestUser(t, "userb")
	createFollow(t, userA.ID, userB.ID)

	post, err := ps.CreatePost(ctx, userB.ID, CreatePostInput{Content: "hello #test"})
	require.NoError(t, err)

	feed, err := ps.GetFeed(ctx, userA.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	require.Equal(t, post.ID, feed.Posts[0].ID)
	require.Equal(t, []string{"test"}, feed.Posts[0].Hashtags)
	require.False(t, feed.HasMore)

	require.NoError(t, ps.Delete(ctx, post.ID, userB.ID))

	feed, err = ps.GetFeed(ctx, userA.ID, 1, 20)
	require.NoError(t, err)
	require.Empty(t, feed.Posts)

	_, err = ps.GetPost(ctx, post.ID, userA.ID)
	require.Equal(t, errs.KindGone, errs.KindOf(err))
}

func TestFeedFiltersAuthorsAndReplies(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	viewer := createTestUser(t, "viewer")
	friend := createTestUser(t, "friend")
	enemy := createTestUser(t, "enemy")
	stranger := createTestUser(t, "stranger")
	createFollow(t, viewer.ID, friend.ID)
	createFollow(t, viewer.ID, enemy.ID)
	createBlock(t, viewer.ID, enemy.ID)

	friendPost, err := ps.CreatePost(ctx, friend.ID, CreatePostInput{Content: "from friend"})
	require.NoError(t, err)
	_, err = ps.CreatePost(ctx, enemy.ID, CreatePostInput{Content: "from enemy"})
	require.NoError(t, err)
	_, err = ps.CreatePost(ctx, stranger.ID, CreatePostInput{Content: "from stranger"})
	require.NoError(t, err)
	ownPost, err := ps.CreatePost(ctx, viewer.ID, CreatePostInput{Content: "own post"})
	require.NoError(t, err)

	// replies never show up in the home feed
	_, err = ps.CreatePost(ctx, friend.ID, CreatePostInput{
		Content:  "a reply",
		IsReply:  true,
		ParentID: &friendPost.ID,
	})
	require.NoError(t, err)

	feed, err := ps.GetFeed(ctx, viewer.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	require.Equal(t, ownPost.ID, feed.Posts[0].ID)
	require.Equal(t, friendPost.ID, feed.Posts[1].ID)
}

func TestFeedPaginationProbe(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "prolific")
	for i := 0; i < 5; i++ {
		_, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "post"})
		require.NoError(t, err)
	}

	page1, err := ps.GetFeed(ctx, author.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1.Posts, 2)
	require.True(t, page1.HasMore)

	page3, err := ps.GetFeed(ctx, author.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3.Posts, 1)
	require.False(t, page3.HasMore)

	// newest first, stable tiebreak: no row appears on two pages
	seen := map[int64]bool{}
	for _, p := range append(page1.Posts, page3.Posts...) {
		require.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestScheduledPostVisibility(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	reader := createTestUser(t, "reader")
	createFollow(t, reader.ID, author.ID)

	future := time.Now().Add(time.Hour)
	post, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "embargoed", ScheduledFor: &future})
	require.NoError(t, err)

	feed, err := ps.GetFeed(ctx, reader.ID, 1, 20)
	require.NoError(t, err)
	require.Empty(t, feed.Posts)

	// to anyone but the author a scheduled post is indistinguishable
	// from a missing one
	_, err = ps.GetPost(ctx, post.ID, reader.ID)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = ps.GetPost(ctx, post.ID, 0)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))

	got, err := ps.GetPost(ctx, post.ID, author.ID)
	require.NoError(t, err)
	require.Equal(t, post.ID, got.ID)

	// interactions cannot confirm a draft's existence either
	err = ps.Like(ctx, post.ID, reader.ID)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = ps.Repost(ctx, post.ID, reader.ID)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = ps.CreatePost(ctx, reader.ID, CreatePostInput{
		Content:  "first!",
		IsReply:  true,
		ParentID: &post.ID,
	})
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = ps.GetReplies(ctx, post.ID, 1, 20)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))

	// the author still can interact with their own draft
	require.NoError(t, ps.Like(ctx, post.ID, author.ID))
}

func TestScheduledEditWindow(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	other := createTestUser(t, "other")

	future := time.Now().Add(time.Hour)
	post, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "draft #old", ScheduledFor: &future})
	require.NoError(t, err)

	_, err = ps.Update(ctx, post.ID, other.ID, UpdatePostInput{Content: "hijack"})
	require.Equal(t, errs.KindForbidden, errs.KindOf(err))

	updated, err := ps.Update(ctx, post.ID, author.ID, UpdatePostInput{Content: "draft #new"})
	require.NoError(t, err)
	require.Equal(t, "draft #new", updated.Content)
	require.Equal(t, []string{"new"}, updated.Hashtags)

	// simulate the scheduled time passing: published content is immutable
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.ORM.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("scheduled_for", past).Error)

	_, err = ps.Update(ctx, post.ID, author.ID, UpdatePostInput{Content: "too late"})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	// a post that was never scheduled is immutable from the start
	instant, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "live"})
	require.NoError(t, err)
	_, err = ps.Update(ctx, instant.ID, author.ID, UpdatePostInput{Content: "edit"})
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestLikeUnlikeConflicts(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	fan := createTestUser(t, "fan")

	post, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "likeable"})
	require.NoError(t, err)

	require.NoError(t, ps.Like(ctx, post.ID, fan.ID))

	err = ps.Like(ctx, post.ID, fan.ID)
	require.Equal(t, errs.KindConflict, errs.KindOf(err))

	// the likes set contains the user exactly once
	var likes int64
	require.NoError(t, db.ORM.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", post.ID, fan.ID).Count(&likes).Error)
	require.EqualValues(t, 1, likes)

	got, err := ps.GetPost(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.LikeCount)

	require.NoError(t, ps.Unlike(ctx, post.ID, fan.ID))
	err = ps.Unlike(ctx, post.ID, fan.ID)
	require.Equal(t, errs.KindConflict, errs.KindOf(err))

	// like is accepted again after an unlike
	require.NoError(t, ps.Like(ctx, post.ID, fan.ID))
}

func TestRepost(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	booster := createTestUser(t, "booster")

	original, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "worth boosting"})
	require.NoError(t, err)

	repost, err := ps.Repost(ctx, original.ID, booster.ID)
	require.NoError(t, err)
	require.True(t, repost.IsRepost)
	require.Empty(t, repost.Content)
	require.NotNil(t, repost.OriginalPost)
	require.Equal(t, original.ID, repost.OriginalPost.ID)
	require.Equal(t, author.ID, repost.OriginalPost.Author.ID)

	_, err = ps.Repost(ctx, original.ID, booster.ID)
	require.Equal(t, errs.KindConflict, errs.KindOf(err))

	got, err := ps.GetPost(ctx, original.ID, booster.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.RepostCount)

	// reposts show up in the booster's public timeline
	timeline, err := ps.GetUserPosts(ctx, booster.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, timeline.Posts, 1)
	require.Equal(t, repost.ID, timeline.Posts[0].ID)
}

func TestDeleteAuthorization(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	rando := createTestUser(t, "rando")
	admin := createTestUser(t, "admin")
	require.NoError(t, db.ORM.Model(&models.User{}).Where("id = ?", admin.ID).
		Update("is_admin", true).Error)

	post, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "target"})
	require.NoError(t, err)

	err = ps.Delete(ctx, post.ID, rando.ID)
	require.Equal(t, errs.KindForbidden, errs.KindOf(err))

	require.NoError(t, ps.Delete(ctx, post.ID, admin.ID))

	err = ps.Delete(ctx, post.ID, author.ID)
	require.Equal(t, errs.KindGone, errs.KindOf(err))

	err = ps.Delete(ctx, 987654, author.ID)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGetUserPostsExcludesDeletedAndReplies(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")

	keep, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "keep me"})
	require.NoError(t, err)
	gone, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "delete me"})
	require.NoError(t, err)
	_, err = ps.CreatePost(ctx, author.ID, CreatePostInput{
		Content:  "a reply",
		IsReply:  true,
		ParentID: &keep.ID,
	})
	require.NoError(t, err)
	require.NoError(t, ps.Delete(ctx, gone.ID, author.ID))

	timeline, err := ps.GetUserPosts(ctx, author.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, timeline.Posts, 1)
	require.Equal(t, keep.ID, timeline.Posts[0].ID)

	_, err = ps.GetUserPosts(ctx, 333333, 1, 20)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGetReplies(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	commenter := createTestUser(t, "commenter")

	post, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "discuss"})
	require.NoError(t, err)

	reply, err := ps.CreatePost(ctx, commenter.ID, CreatePostInput{
		Content:  "first!",
		IsReply:  true,
		ParentID: &post.ID,
	})
	require.NoError(t, err)

	replies, err := ps.GetReplies(ctx, post.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, replies.Posts, 1)
	require.Equal(t, reply.ID, replies.Posts[0].ID)
	require.True(t, replies.Posts[0].IsReply)
}

func TestQuotePost(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t, "author")
	quoter := createTestUser(t, "quoter")

	original, err := ps.CreatePost(ctx, author.ID, CreatePostInput{Content: "quotable"})
	require.NoError(t, err)

	quote, err := ps.CreatePost(ctx, quoter.ID, CreatePostInput{
		Content:  "look at this",
		IsQuote:  true,
		QuotedID: &original.ID,
	})
	require.NoError(t, err)
	require.True(t, quote.IsQuote)
	require.NotNil(t, quote.QuotedPost)
	require.Equal(t, original.ID, quote.QuotedPost.ID)
	require.Equal(t, "quotable", quote.QuotedPost.Content)
}
