package models

import (
	"time"
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPassword string     `gorm:"not null" json:"-"`
	FullName       string     `gorm:"size:100" json:"full_name"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	IsSuperuser    bool       `gorm:"not null" json:"is_superuser"`
	IsStaff        bool       `gorm:"not null" json:"is_staff"`
	Avatar         *string    `gorm:"size:255" json:"avatar"` // path relative to MEDIA_PATH
	DateRegistered time.Time  `gorm:"autoCreateTime;index" json:"date_registered"`
	LastLogin      *time.Time `json:"last_login"`
}

// Author is the public view of a user shown next to their content.
type Author struct {
	ID       uint    `json:"id"`
	FullName string  `json:"full_name"`
	Avatar   *string `json:"avatar"`
}

func (u *User) Author() *Author {
	return &Author{ID: u.ID, FullName: u.FullName, Avatar: u.Avatar}
}

// CanModify reports whether u may mutate a row owned by ownerID.
func (u *User) CanModify(ownerID uint) bool {
	return u != nil && (u.IsSuperuser || u.ID == ownerID)
}
