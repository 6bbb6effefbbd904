package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"quill/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// AvatarStore keeps user images on local disk under one directory.
type AvatarStore struct {
	dir string
	log *zap.Logger
}

func NewAvatarStore(dir string, log *zap.Logger) *AvatarStore {
	return &AvatarStore{dir: dir, log: log}
}

func (a *AvatarStore) Dir() string { return a.dir }

// Save sniffs the content type, accepts JPEG and PNG only and writes the
// image as <uuid>.<ext>. It returns the file name relative to Dir.
func (a *AvatarStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return "", apperr.Validation("could not read upload")
	}
	if len(data) == 0 {
		return "", apperr.Validation("empty upload")
	}
	if len(data) > MaxAvatarSize {
		return "", apperr.Validation(fmt.Sprintf("avatar must be at most %d MiB", MaxAvatarSize>>20))
	}

	mtype := mimetype.Detect(data)
	ext, ok := avatarExtensions[mtype.String()]
	if !ok {
		return "", apperr.Validation("avatar must be a JPEG or PNG image")
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", apperr.Storage(err)
	}
	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(a.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", apperr.Storage(err)
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return "", apperr.Storage(err)
	}
	return name, nil
}

// Remove deletes a stored avatar; failures are only logged.
func (a *AvatarStore) Remove(name string) {
	path := filepath.Join(a.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.log.Warn("remove avatar", zap.String("path", path), zap.Error(err))
	}
}
