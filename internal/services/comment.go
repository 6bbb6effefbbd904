package services

import (
	"context"
	"strings"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"

	"gorm.io/gorm"
)

type CommentUpdate struct {
	Text     *string
	IsActive *bool
}

type CommentService struct {
	db    *gorm.DB
	store *store.Store
	cache *PostCache
}

func NewCommentService(db *gorm.DB, st *store.Store, cache *PostCache) *CommentService {
	return &CommentService{db: db, store: st, cache: cache}
}

// Get returns a top-level comment with its replies.
func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return s.store.Comments.GetTopLevel(s.db.WithContext(ctx), id)
}

func (s *CommentService) List(ctx context.Context, skip, limit int, postID *uint) ([]*models.Comment, error) {
	return s.store.Comments.GetMultiTopLevel(s.db.WithContext(ctx), skip, limit, postID)
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, postID uint, text string) (*models.Comment, error) {
	return s.create(ctx, actor, postID, nil, text)
}

// Reply attaches a comment under parentID, which must belong to postID.
func (s *CommentService) Reply(ctx context.Context, actor *models.User, postID, parentID uint, text string) (*models.Comment, error) {
	return s.create(ctx, actor, postID, &parentID, text)
}

func (s *CommentService) create(ctx context.Context, actor *models.User, postID uint, parentID *uint, text string) (*models.Comment, error) {
	tx := s.db.WithContext(ctx)

	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("comment text must not be empty")
	}
	post, err := s.store.Posts.Get(tx, map[string]any{"id": postID})
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.store.Comments.Get(tx, map[string]any{"id": *parentID})
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, apperr.Validation("parent comment belongs to another post")
		}
	}

	comment, err := s.store.Comments.Create(tx, store.CommentCreate{
		Text:     text,
		UserID:   actor.ID,
		PostID:   post.ID,
		ParentID: parentID,
	})
	if err != nil {
		return nil, err
	}
	comment.Replies = []*models.Comment{}
	s.cache.Delete(post.Slug)
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, id uint, in CommentUpdate) (*models.Comment, error) {
	tx := s.db.WithContext(ctx)

	existing, err := s.owned(tx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		return nil, apperr.Validation("comment text must not be empty")
	}

	comment, err := s.store.Comments.Update(tx, existing, store.CommentPatch{Text: in.Text, IsActive: in.IsActive})
	if err != nil {
		return nil, err
	}
	if err := s.store.Comments.LoadReplies(tx, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	s.invalidatePost(tx, comment.PostID)
	return comment, nil
}

// Delete removes the comment and, through the parent foreign key, its replies.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id uint) (*models.Comment, error) {
	tx := s.db.WithContext(ctx)

	if _, err := s.owned(tx, actor, id); err != nil {
		return nil, err
	}
	removed, err := s.store.Comments.Remove(tx, id)
	if err != nil {
		return nil, err
	}
	s.invalidatePost(tx, removed.PostID)
	return removed, nil
}

func (s *CommentService) owned(tx *gorm.DB, actor *models.User, id uint) (*models.Comment, error) {
	comment, err := s.store.Comments.Get(tx, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(comment.UserID) {
		return nil, apperr.PermissionDenied("not enough permissions")
	}
	return comment, nil
}

func (s *CommentService) invalidatePost(tx *gorm.DB, postID uint) {
	if post, err := s.store.Posts.Get(tx, map[string]any{"id": postID}); err == nil {
		s.cache.Delete(post.Slug)
	}
}
