package services

import (
	"context"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ContactService handles newsletter subscriptions.
type ContactService struct {
	db       *gorm.DB
	store    *store.Store
	validate *validator.Validate
}

func NewContactService(db *gorm.DB, st *store.Store) *ContactService {
	return &ContactService{db: db, store: st, validate: validator.New()}
}

// Subscribe registers email for the digest of categoryID. An email can hold
// one subscription.
func (s *ContactService) Subscribe(ctx context.Context, categoryID uint, email string) (*models.Contact, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperr.Validation("invalid email address")
	}

	tx := s.db.WithContext(ctx)
	if _, err := s.store.Categories.Get(tx, map[string]any{"id": categoryID}); err != nil {
		return nil, err
	}

	contact, err := s.store.Contacts.Create(tx, store.ContactCreate{Email: email, CategoryID: &categoryID})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("this email is already subscribed", err)
		}
		return nil, err
	}
	return contact, nil
}
