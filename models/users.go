package models

import (
	"time"
)

type User struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string    `gorm:"size:20;uniqueIndex" json:"username"`
	Email            string    `gorm:"size:255;uniqueIndex" json:"email"`
	Password         string    `gorm:"size:255" json:"-"`
	Name             string    `gorm:"size:50" json:"name"`
	Bio              string    `gorm:"size:160" json:"bio"`
	Avatar           string    `gorm:"size:512" json:"avatar,omitempty"`
	IsVerified       bool      `gorm:"default:false" json:"is_verified"`
	IsAdmin          bool      `gorm:"default:false" json:"is_admin"`
	EmailVerifyToken string    `gorm:"size:64;index" json:"-"`
	LastActive       time.Time `json:"last_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the public profile slice embedded into denormalized
// post and notification payloads.
type UserSummary struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
	}
}

// Follow - directed edge: UserID follows TargetID.
type Follow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:follow_edge_idx,unique" json:"user_id"`
	TargetID  int64     `gorm:"index:follow_edge_idx,unique;index" json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// Block - directed edge: UserID blocked TargetID.
type Block struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:block_edge_idx,unique" json:"user_id"`
	TargetID  int64     `gorm:"index:block_edge_idx,unique" json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Block) TableName() string {
	return "blocks"
}
