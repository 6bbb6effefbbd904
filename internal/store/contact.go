package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
)

type ContactCreate struct {
	Email      string
	CategoryID *uint
}

func (in ContactCreate) Build() models.Contact {
	return models.Contact{Email: in.Email, CategoryID: in.CategoryID}
}

type ContactPatch struct {
	CategoryID *uint
}

func (p ContactPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.CategoryID != nil {
		changes["category_id"] = *p.CategoryID
	}
	return changes
}

type Contacts struct {
	CRUD[models.Contact, ContactCreate, ContactPatch]
}

// ByCategory lists the subscribers of one category.
func (Contacts) ByCategory(db *gorm.DB, categoryID uint) ([]models.Contact, error) {
	contacts := make([]models.Contact, 0)
	if err := db.Where("category_id = ?", categoryID).Order("id ASC").Find(&contacts).Error; err != nil {
		return nil, translate(err, "contact")
	}
	return contacts, nil
}
