package models

import (
	"time"
)

// Tag names are matched exactly, case included.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}
