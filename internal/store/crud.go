package store

import (
	"gorm.io/gorm"
)

// Creator is the creation shape of an entity.
type Creator[M any] interface {
	Build() M
}

// Patch is a partial update. Changes returns only the columns the caller
// supplied, keyed by column name.
type Patch interface {
	Changes() map[string]any
}

// CRUD is the data-access contract shared by every entity. It holds no
// connection; each call runs on the session it is given, so a request or
// transaction decides the scope.
type CRUD[M any, C Creator[M], U Patch] struct {
	entity string
}

func NewCRUD[M any, C Creator[M], U Patch](entity string) CRUD[M, C, U] {
	return CRUD[M, C, U]{entity: entity}
}

// Get returns the first row matching every equality predicate in filter.
func (r CRUD[M, C, U]) Get(db *gorm.DB, filter map[string]any) (*M, error) {
	var row M
	if err := db.Where(filter).First(&row).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return &row, nil
}

// GetMulti returns a page in primary-key order. An empty page is not an error.
func (r CRUD[M, C, U]) GetMulti(db *gorm.DB, skip, limit int) ([]M, error) {
	rows := make([]M, 0)
	if err := db.Order("id ASC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return rows, nil
}

func (r CRUD[M, C, U]) Create(db *gorm.DB, in C) (*M, error) {
	row := in.Build()
	if err := db.Create(&row).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return &row, nil
}

// Update writes only the fields present in patch, then reloads the row so
// server-side columns are current.
func (r CRUD[M, C, U]) Update(db *gorm.DB, existing *M, patch U) (*M, error) {
	if changes := patch.Changes(); len(changes) > 0 {
		if err := db.Model(existing).Updates(changes).Error; err != nil {
			return nil, translate(err, r.entity)
		}
	}
	if err := db.First(existing).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return existing, nil
}

// Remove deletes by id and returns the row as it was.
func (r CRUD[M, C, U]) Remove(db *gorm.DB, id uint) (*M, error) {
	var row M
	if err := db.First(&row, id).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	if err := db.Delete(&row).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return &row, nil
}
