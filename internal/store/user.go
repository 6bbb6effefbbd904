package store

import (
	"time"

	"quill/internal/models"

	"gorm.io/gorm"
)

type UserCreate struct {
	Email          string
	HashedPassword string
	FullName       string
	IsActive       bool
	IsSuperuser    bool
	IsStaff        bool
}

func (in UserCreate) Build() models.User {
	return models.User{
		Email:          in.Email,
		HashedPassword: in.HashedPassword,
		FullName:       in.FullName,
		IsActive:       in.IsActive,
		IsSuperuser:    in.IsSuperuser,
		IsStaff:        in.IsStaff,
	}
}

type UserPatch struct {
	Email          *string
	HashedPassword *string
	FullName       *string
	IsActive       *bool
	IsSuperuser    *bool
	IsStaff        *bool
	Avatar         *string
	LastLogin      *time.Time
}

func (p UserPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Email != nil {
		changes["email"] = *p.Email
	}
	if p.HashedPassword != nil {
		changes["hashed_password"] = *p.HashedPassword
	}
	if p.FullName != nil {
		changes["full_name"] = *p.FullName
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	if p.IsSuperuser != nil {
		changes["is_superuser"] = *p.IsSuperuser
	}
	if p.IsStaff != nil {
		changes["is_staff"] = *p.IsStaff
	}
	if p.Avatar != nil {
		changes["avatar"] = *p.Avatar
	}
	if p.LastLogin != nil {
		changes["last_login"] = *p.LastLogin
	}
	return changes
}

type Users struct {
	CRUD[models.User, UserCreate, UserPatch]
}

func (u Users) GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	return u.Get(db, map[string]any{"email": email})
}

func (u Users) GetByID(db *gorm.DB, id uint) (*models.User, error) {
	return u.Get(db, map[string]any{"id": id})
}
