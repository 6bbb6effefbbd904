package store

import (
	"strings"
	"time"

	"quill/internal/models"

	"gorm.io/gorm"
)

type PostCreate struct {
	Title      string
	Text       string
	Slug       string // base slug; CreateWithTags makes it unique
	UserID     uint
	CategoryID *uint
}

func (in PostCreate) Build() models.Post {
	return models.Post{
		Title:      in.Title,
		Text:       in.Text,
		Slug:       in.Slug,
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
	}
}

// PostPatch changes a post. ClearCategory detaches it from its category and
// wins over CategoryID.
type PostPatch struct {
	Title         *string
	Text          *string
	CategoryID    *uint
	ClearCategory bool
}

func (p PostPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Text != nil {
		changes["text"] = *p.Text
	}
	if p.ClearCategory {
		changes["category_id"] = nil
	} else if p.CategoryID != nil {
		changes["category_id"] = *p.CategoryID
	}
	return changes
}

// PostFilter narrows a post listing. Search and Tags form one OR group;
// CategoryID, when set, is required in addition to that group.
type PostFilter struct {
	Search     string
	Tags       []string
	CategoryID *uint
	Skip       int
	Limit      int
}

type Posts struct {
	CRUD[models.Post, PostCreate, PostPatch]
	tags Tags
}

func (p Posts) GetBySlug(db *gorm.DB, slug string) (*models.Post, error) {
	var post models.Post
	err := db.Preload("Category").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id ASC")
	}).Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, translate(err, "post")
	}
	if post.Tags == nil {
		post.Tags = []models.Tag{}
	}
	return &post, nil
}

// CreateWithTags inserts the post together with its reconciled tags in one
// transaction. Tag rows are never upserted through the association; only
// the post_tags links are written.
func (p Posts) CreateWithTags(db *gorm.DB, in PostCreate, tagNames []string) (*models.Post, error) {
	var slug string
	err := db.Transaction(func(tx *gorm.DB) error {
		tags, err := p.tags.Reconcile(tx, tagNames)
		if err != nil {
			return err
		}
		if in.Slug, err = UniqueSlug(tx, &models.Post{}, in.Slug); err != nil {
			return err
		}

		post := in.Build()
		post.Tags = tags
		if err := tx.Omit("Tags.*").Create(&post).Error; err != nil {
			return translate(err, "post")
		}
		slug = post.Slug
		return nil
	})
	if err != nil {
		return nil, translate(err, "post")
	}
	return p.GetBySlug(db, slug)
}

// UpdateWithTags applies patch and, when tagNames is non-nil, replaces the
// post's tag set with the reconciled names.
func (p Posts) UpdateWithTags(db *gorm.DB, existing *models.Post, patch PostPatch, tagNames *[]string) (*models.Post, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := p.Update(tx, existing, patch); err != nil {
			return err
		}
		if tagNames == nil {
			return nil
		}

		tags, err := p.tags.Reconcile(tx, *tagNames)
		if err != nil {
			return err
		}
		assoc := tx.Model(existing).Association("Tags")
		if len(tags) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(tags)
		}
		return translate(err, "post")
	})
	if err != nil {
		return nil, translate(err, "post")
	}
	return p.GetBySlug(db, existing.Slug)
}

// Remove drops the post's tag links, then the post. Comments and likes go
// with it through their foreign keys.
func (p Posts) Remove(db *gorm.DB, id uint) (*models.Post, error) {
	var removed *models.Post
	err := db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Preload("Tags").First(&post, id).Error; err != nil {
			return translate(err, "post")
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error; err != nil {
			return translate(err, "post")
		}
		if err := tx.Delete(&post).Error; err != nil {
			return translate(err, "post")
		}
		removed = &post
		return nil
	})
	if err != nil {
		return nil, translate(err, "post")
	}
	return removed, nil
}

// Search lists posts matching f, newest first.
func (p Posts) Search(db *gorm.DB, f PostFilter) ([]models.Post, error) {
	q := db.Model(&models.Post{}).Preload("Category").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id ASC")
	})

	var terms []string
	var args []any
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		terms = append(terms, `LOWER(posts.title) LIKE ? ESCAPE '\'`, `LOWER(posts.text) LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}
	if names := dedupeNames(f.Tags); len(names) > 0 {
		terms = append(terms, "posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE tags.name IN ?)")
		args = append(args, names)
	}
	if len(terms) > 0 {
		q = q.Where("("+strings.Join(terms, " OR ")+")", args...)
	}
	if f.CategoryID != nil {
		q = q.Where("posts.category_id = ?", *f.CategoryID)
	}

	posts := make([]models.Post, 0)
	err := q.Order("posts.date_created DESC").Order("posts.id DESC").
		Offset(f.Skip).Limit(f.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate(err, "post")
	}
	for i := range posts {
		if posts[i].Tags == nil {
			posts[i].Tags = []models.Tag{}
		}
	}
	return posts, nil
}

// PublishedSince returns posts of one category created at or after the
// given time, newest first.
func (Posts) PublishedSince(db *gorm.DB, categoryID uint, since time.Time) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	err := db.Where("category_id = ? AND date_created >= ?", categoryID, since).
		Order("date_created DESC").Find(&posts).Error
	if err != nil {
		return nil, translate(err, "post")
	}
	return posts, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
