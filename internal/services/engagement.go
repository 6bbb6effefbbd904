package services

import (
	"context"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"

	"gorm.io/gorm"
)

// EngagementService manages the follow graph between users.
type EngagementService struct {
	db    *gorm.DB
	store *store.Store
}

func NewEngagementService(db *gorm.DB, st *store.Store) *EngagementService {
	return &EngagementService{db: db, store: st}
}

type FollowState struct {
	Following bool `json:"following"`
}

func (s *EngagementService) Follow(ctx context.Context, actor *models.User, targetID uint) (*FollowState, error) {
	tx := s.db.WithContext(ctx)

	if err := s.checkTarget(tx, actor, targetID); err != nil {
		return nil, err
	}
	if err := s.store.Follows.Follow(tx, actor.ID, targetID); err != nil {
		return nil, err
	}
	return &FollowState{Following: true}, nil
}

func (s *EngagementService) Unfollow(ctx context.Context, actor *models.User, targetID uint) (*FollowState, error) {
	tx := s.db.WithContext(ctx)

	if err := s.checkTarget(tx, actor, targetID); err != nil {
		return nil, err
	}
	if err := s.store.Follows.Unfollow(tx, actor.ID, targetID); err != nil {
		return nil, err
	}
	return &FollowState{Following: false}, nil
}

func (s *EngagementService) Followers(ctx context.Context, userID uint, skip, limit int) ([]models.User, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.store.Users.GetByID(tx, userID); err != nil {
		return nil, err
	}
	return s.store.Follows.Followers(tx, userID, skip, limit)
}

func (s *EngagementService) Following(ctx context.Context, userID uint, skip, limit int) ([]models.User, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.store.Users.GetByID(tx, userID); err != nil {
		return nil, err
	}
	return s.store.Follows.Following(tx, userID, skip, limit)
}

func (s *EngagementService) checkTarget(tx *gorm.DB, actor *models.User, targetID uint) error {
	if actor.ID == targetID {
		return apperr.Validation("users cannot follow themselves")
	}
	_, err := s.store.Users.GetByID(tx, targetID)
	return err
}
