package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Likes manages (user, post) like edges. The unique index makes a repeated
// like a no-op instead of a second row.
type Likes struct{}

func (Likes) Like(db *gorm.DB, userID, postID uint) error {
	edge := models.PostLike{UserID: userID, PostID: postID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return translate(err, "like")
	}
	return nil
}

// Unlike removes the edge if present.
func (Likes) Unlike(db *gorm.DB, userID, postID uint) error {
	err := db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.PostLike{}).Error
	return translate(err, "like")
}

func (Likes) Count(db *gorm.DB, postID uint) (int64, error) {
	var count int64
	if err := db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, translate(err, "like")
	}
	return count, nil
}

func (Likes) HasLiked(db *gorm.DB, userID, postID uint) (bool, error) {
	var count int64
	err := db.Model(&models.PostLike{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	if err != nil {
		return false, translate(err, "like")
	}
	return count > 0, nil
}
