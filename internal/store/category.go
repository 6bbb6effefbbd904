package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
)

type CategoryCreate struct {
	Name   string
	Slug   string
	UserID uint
}

func (in CategoryCreate) Build() models.Category {
	return models.Category{Name: in.Name, Slug: in.Slug, UserID: in.UserID}
}

type CategoryPatch struct {
	Name *string
}

func (p CategoryPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	return changes
}

type Categories struct {
	CRUD[models.Category, CategoryCreate, CategoryPatch]
}

func (c Categories) GetBySlug(db *gorm.DB, slug string) (*models.Category, error) {
	return c.Get(db, map[string]any{"slug": slug})
}

// CreateWithSlug allocates a unique slug from in.Slug and inserts the row.
func (c Categories) CreateWithSlug(db *gorm.DB, in CategoryCreate) (*models.Category, error) {
	var created *models.Category
	err := db.Transaction(func(tx *gorm.DB) error {
		slug, err := UniqueSlug(tx, &models.Category{}, in.Slug)
		if err != nil {
			return err
		}
		in.Slug = slug
		created, err = c.Create(tx, in)
		return err
	})
	if err != nil {
		return nil, translate(err, "category")
	}
	return created, nil
}
