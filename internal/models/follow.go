package models

import (
	"time"
)

// Follow is a directed follower -> followed edge between users.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FollowedID  uint      `gorm:"not null;index;uniqueIndex:idx_follow_pair" json:"followed_id"`
	Followed    *User     `gorm:"foreignKey:FollowedID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}
