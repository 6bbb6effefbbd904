package models

import (
	"time"
)

// Contact is a newsletter subscriber, optionally scoped to one category.
type Contact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Date       time.Time `gorm:"autoCreateTime" json:"date"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
