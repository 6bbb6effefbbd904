package models

import (
	"time"
)

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	DateCreated time.Time `gorm:"autoCreateTime;index" json:"date_created"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	Post        *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID    *uint     `gorm:"index" json:"parent_id"` // nil for top-level comments
	Parent      *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Filled level by level from parent_id lookups, never stored.
	Replies []*Comment `gorm:"-" json:"replies"`
}
