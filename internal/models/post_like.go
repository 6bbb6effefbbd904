package models

import (
	"time"
)

// PostLike is unique per (user, post); unlike removes the row.
type PostLike struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	User        *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID      uint      `gorm:"not null;index;uniqueIndex:idx_like_user_post" json:"post_id"`
	Post        *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}
