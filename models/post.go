package models

import "time"

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityMentioned Visibility = "mentioned"
)

// PollOption is one poll choice with the ids of the users who voted
// for it.
type PollOption struct {
	Text  string  `json:"text"`
	Votes []int64 `json:"votes,omitempty"`
}

// Poll is the optional poll substructure of a post.
type Poll struct {
	Options   []PollOption `json:"options"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// Post covers regular posts, replies, quotes and reposts. A repost
// carries no content of its own and references exactly one original.
type Post struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID     int64      `gorm:"index:posts_author_created_idx" json:"author_id"`
	Content      string     `gorm:"size:280" json:"content"`
	Media        []string   `gorm:"serializer:json" json:"media,omitempty"`
	Hashtags     []string   `gorm:"serializer:json" json:"hashtags,omitempty"`
	Poll         *Poll      `gorm:"serializer:json" json:"poll,omitempty"`
	IsRepost     bool       `gorm:"default:false" json:"is_repost"`
	IsReply      bool       `gorm:"default:false" json:"is_reply"`
	IsQuote      bool       `gorm:"default:false" json:"is_quote"`
	IsPinned     bool       `gorm:"default:false" json:"is_pinned"`
	IsDeleted    bool       `gorm:"default:false;index" json:"is_deleted"`
	OriginalID   *int64     `gorm:"column:original_post_id;index" json:"original_post_id,omitempty"`
	ParentID     *int64     `gorm:"column:parent_post_id;index" json:"parent_post_id,omitempty"`
	QuotedID     *int64     `gorm:"column:quoted_post_id" json:"quoted_post_id,omitempty"`
	Visibility   Visibility `gorm:"size:12;default:public" json:"visibility"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index;index:posts_author_created_idx" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// PostLike - membership row of a post's likes set.
type PostLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index:post_like_idx,unique" json:"post_id"`
	UserID    int64     `gorm:"index:post_like_idx,unique" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// EmbeddedPost is the one-level embed of a referenced original or
// quoted post. Referenced posts are never expanded recursively.
type EmbeddedPost struct {
	ID        int64       `json:"id"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	Media     []string    `json:"media,omitempty"`
	IsDeleted bool        `json:"is_deleted"`
	CreatedAt time.Time   `json:"created_at"`
}

// PostView is the denormalized post shape returned by feed and
// timeline queries: the row plus its author's public profile and the
// referenced post, if any.
type PostView struct {
	ID           int64         `json:"id"`
	Author       UserSummary   `json:"author"`
	Content      string        `json:"content"`
	Media        []string      `json:"media,omitempty"`
	Hashtags     []string      `json:"hashtags,omitempty"`
	Poll         *Poll         `json:"poll,omitempty"`
	IsRepost     bool          `json:"is_repost"`
	IsReply      bool          `json:"is_reply"`
	IsQuote      bool          `json:"is_quote"`
	IsPinned     bool          `json:"is_pinned"`
	OriginalPost *EmbeddedPost `json:"original_post,omitempty"`
	QuotedPost   *EmbeddedPost `json:"quoted_post,omitempty"`
	LikeCount    int64         `json:"like_count"`
	RepostCount  int64         `json:"repost_count"`
	Visibility   Visibility    `json:"visibility"`
	ScheduledFor *time.Time    `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type FeedResponse struct {
	Posts   []PostView `json:"posts"`
	HasMore bool       `json:"has_more"`
}
