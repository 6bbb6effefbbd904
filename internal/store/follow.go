package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Follows manages follower -> followed edges between users.
type Follows struct{}

func (Follows) Follow(db *gorm.DB, followerID, followedID uint) error {
	edge := models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return translate(err, "follow")
	}
	return nil
}

func (Follows) Unfollow(db *gorm.DB, followerID, followedID uint) error {
	err := db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{}).Error
	return translate(err, "follow")
}

func (Follows) IsFollowing(db *gorm.DB, followerID, followedID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "follow")
	}
	return count > 0, nil
}

// Followers lists the users following userID.
func (Follows) Followers(db *gorm.DB, userID uint, skip, limit int) ([]models.User, error) {
	users := make([]models.User, 0)
	err := db.Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.id ASC").Offset(skip).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "follow")
	}
	return users, nil
}

// Following lists the users userID follows.
func (Follows) Following(db *gorm.DB, userID uint, skip, limit int) ([]models.User, error) {
	users := make([]models.User, 0)
	err := db.Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.id ASC").Offset(skip).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "follow")
	}
	return users, nil
}
