package services

import (
	"context"
	"strings"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"
	"quill/internal/utils"

	"gorm.io/gorm"
)

type CategoryService struct {
	db    *gorm.DB
	store *store.Store
	cache *PostCache
}

func NewCategoryService(db *gorm.DB, st *store.Store, cache *PostCache) *CategoryService {
	return &CategoryService{db: db, store: st, cache: cache}
}

func (s *CategoryService) Get(ctx context.Context, slug string) (*models.Category, error) {
	return s.store.Categories.GetBySlug(s.db.WithContext(ctx), slug)
}

func (s *CategoryService) List(ctx context.Context, skip, limit int) ([]models.Category, error) {
	return s.store.Categories.GetMulti(s.db.WithContext(ctx), skip, limit)
}

// Create derives the slug from name; actor becomes the owner.
func (s *CategoryService) Create(ctx context.Context, actor *models.User, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name must not be empty")
	}
	return s.store.Categories.CreateWithSlug(s.db.WithContext(ctx), store.CategoryCreate{
		Name:   name,
		Slug:   utils.Slugify(name),
		UserID: actor.ID,
	})
}

func (s *CategoryService) Update(ctx context.Context, actor *models.User, id uint, name string) (*models.Category, error) {
	tx := s.db.WithContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name must not be empty")
	}
	existing, err := s.owned(tx, actor, id)
	if err != nil {
		return nil, err
	}
	category, err := s.store.Categories.Update(tx, existing, store.CategoryPatch{Name: &name})
	if err != nil {
		return nil, err
	}
	s.cache.Purge()
	return category, nil
}

// Delete removes the category; its posts and contacts keep existing with
// no category.
func (s *CategoryService) Delete(ctx context.Context, actor *models.User, id uint) (*models.Category, error) {
	tx := s.db.WithContext(ctx)

	if _, err := s.owned(tx, actor, id); err != nil {
		return nil, err
	}
	category, err := s.store.Categories.Remove(tx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Purge()
	return category, nil
}

func (s *CategoryService) owned(tx *gorm.DB, actor *models.User, id uint) (*models.Category, error) {
	category, err := s.store.Categories.Get(tx, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(category.UserID) {
		return nil, apperr.PermissionDenied("not enough permissions")
	}
	return category, nil
}
