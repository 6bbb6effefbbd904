package services

import (
	"context"
	"strings"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"

	"gorm.io/gorm"
)

// TagService exposes tag CRUD. Callers gate mutations to superusers.
type TagService struct {
	db    *gorm.DB
	store *store.Store
	cache *PostCache
}

func NewTagService(db *gorm.DB, st *store.Store, cache *PostCache) *TagService {
	return &TagService{db: db, store: st, cache: cache}
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	return s.store.Tags.Get(s.db.WithContext(ctx), map[string]any{"id": id})
}

func (s *TagService) List(ctx context.Context, skip, limit int) ([]models.Tag, error) {
	return s.store.Tags.GetMulti(s.db.WithContext(ctx), skip, limit)
}

func (s *TagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("tag name must not be empty")
	}
	return s.store.Tags.Create(s.db.WithContext(ctx), store.TagCreate{Name: name})
}

func (s *TagService) Update(ctx context.Context, id uint, name string) (*models.Tag, error) {
	tx := s.db.WithContext(ctx)

	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("tag name must not be empty")
	}
	existing, err := s.store.Tags.Get(tx, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	tag, err := s.store.Tags.Update(tx, existing, store.TagPatch{Name: &name})
	if err != nil {
		return nil, err
	}
	s.cache.Purge()
	return tag, nil
}

func (s *TagService) Delete(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.store.Tags.Remove(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	s.cache.Purge()
	return tag, nil
}
