package handlers

import (
	"strconv"
	"strings"
	"time"

	"chirp/errs"
	"chirp/models"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var postService = services.NewPostService()

// CreatePost accepts either JSON or a multipart form with up to 4
// media files alongside the content field.
func CreatePost(c *gin.Context) {
	userID := currentUserID(c)

	var in services.CreatePostInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		parsed, err := parseMultipartPost(c)
		if err != nil {
			respondError(c, err)
			return
		}
		in = *parsed
	} else {
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, errs.Validation("invalid request body"))
			return
		}
	}

	view, err := postService.CreatePost(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, view)
}

func parseMultipartPost(c *gin.Context) (*services.CreatePostInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errs.Validation("invalid multipart form")
	}

	in := services.CreatePostInput{
		Content:    c.PostForm("content"),
		Visibility: models.Visibility(c.PostForm("visibility")),
	}
	if v := c.PostForm("scheduled_for"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errs.Validation("scheduled_for must be RFC3339")
		}
		in.ScheduledFor = &t
	}
	if v := c.PostForm("parent_post_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errs.Validation("invalid parent_post_id")
		}
		in.IsReply = true
		in.ParentID = &id
	}
	if v := c.PostForm("quoted_post_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errs.Validation("invalid quoted_post_id")
		}
		in.IsQuote = true
		in.QuotedID = &id
	}

	files := form.File["media"]
	if len(files) > services.MaxMediaPerPost {
		return nil, errs.Validation("a post can carry at most 4 media attachments")
	}
	if len(files) > 0 && services.Media == nil {
		return nil, errs.Internal("media storage not configured", nil)
	}
	for _, file := range files {
		url, err := services.Media.Save(file)
		if err != nil {
			return nil, errs.Internal("failed to store media", err)
		}
		in.Media = append(in.Media, url)
	}
	return &in, nil
}

func GetFeed(c *gin.Context) {
	page, limit := pageParams(c)

	feed, err := postService.GetFeed(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, feed.Posts, len(feed.Posts), feed.HasMore)
}

func GetPost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := postService.GetPost(c.Request.Context(), postID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func UpdatePost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var in services.UpdatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("invalid request body"))
		return
	}

	view, err := postService.Update(c.Request.Context(), postID, currentUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func DeletePost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := postService.Delete(c.Request.Context(), postID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func LikePost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := postService.Like(c.Request.Context(), postID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func UnlikePost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := postService.Unlike(c.Request.Context(), postID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{})
}

func RepostPost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := postService.Repost(c.Request.Context(), postID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, view)
}

func GetReplies(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := pageParams(c)

	replies, err := postService.GetReplies(c.Request.Context(), postID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, replies.Posts, len(replies.Posts), replies.HasMore)
}

func GetUserPosts(c *gin.Context) {
	userID, err := paramID(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := pageParams(c)

	timeline, err := postService.GetUserPosts(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, timeline.Posts, len(timeline.Posts), timeline.HasMore)
}
