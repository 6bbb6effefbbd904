package store

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UniqueSlug returns base if no row of model uses it yet, otherwise base
// with a short random suffix. The unique index on slug stays authoritative.
func UniqueSlug(db *gorm.DB, model any, base string) (string, error) {
	if base == "" {
		return shortID(), nil
	}

	var count int64
	if err := db.Model(model).Where("slug = ?", base).Count(&count).Error; err != nil {
		return "", translate(err, "slug")
	}
	if count == 0 {
		return base, nil
	}
	return base + "-" + shortID(), nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
