package store

import (
	"errors"

	"quill/internal/apperr"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the application taxonomy. The session
// must run with TranslateError so driver codes arrive as gorm sentinels.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(entity+" already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Conflict(entity+" references a missing row", err)
	}
	return apperr.Storage(err)
}
