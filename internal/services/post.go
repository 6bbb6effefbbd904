package services

import (
	"context"
	"net/url"
	"strings"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/store"
	"quill/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/api/v1"

// PostURL is the absolute address of a post's detail endpoint.
func PostURL(base, slug string) string {
	return strings.TrimRight(base, "/") + APIPrefix + "/post/" + url.PathEscape(slug)
}

// PostDetail is what GET /post/:slug returns. Author and HasLiked are
// filled per request and never cached.
type PostDetail struct {
	*models.Post
	Author   *models.Author    `json:"author"`
	TextHTML string            `json:"text_html"`
	Likes    int64             `json:"likes"`
	HasLiked bool              `json:"has_liked"`
	Comments []*models.Comment `json:"comments"`
}

type LikeSummary struct {
	Count    int64 `json:"count"`
	HasLiked bool  `json:"has_liked"`
}

type PostInput struct {
	Title      string
	Text       string
	CategoryID *uint
	Tags       []string
}

// PostUpdate leaves nil fields untouched. A non-nil Tags replaces the
// whole tag set, an empty slice clears it. CategoryID 0 detaches the post
// from its category.
type PostUpdate struct {
	Title      *string
	Text       *string
	CategoryID *uint
	Tags       *[]string
}

// PostCache holds rendered post details by slug.
type PostCache = utils.Cache[PostDetail]

type PostService struct {
	db    *gorm.DB
	store *store.Store
	cache *PostCache
	log   *zap.Logger
}

func NewPostService(db *gorm.DB, st *store.Store, cache *PostCache, log *zap.Logger) *PostService {
	return &PostService{db: db, store: st, cache: cache, log: log}
}

// Get returns the post with rendered text, like count and comment tree.
// viewer may be nil.
func (s *PostService) Get(ctx context.Context, slug string, viewer *models.User) (*PostDetail, error) {
	tx := s.db.WithContext(ctx)

	detail, ok := s.cache.Get(slug)
	if !ok {
		post, err := s.store.Posts.GetBySlug(tx, slug)
		if err != nil {
			return nil, err
		}
		likes, err := s.store.Likes.Count(tx, post.ID)
		if err != nil {
			return nil, err
		}
		comments, err := s.store.Comments.GetMultiTopLevel(tx, 0, -1, &post.ID)
		if err != nil {
			return nil, err
		}
		detail = PostDetail{
			Post:     post,
			TextHTML: utils.RenderMarkdown(post.Text),
			Likes:    likes,
			Comments: comments,
		}
		s.cache.Set(slug, detail)
	}

	author, err := s.store.Users.GetByID(tx, detail.UserID)
	if err != nil {
		return nil, err
	}
	detail.Author = author.Author()

	if viewer != nil {
		liked, err := s.store.Likes.HasLiked(tx, viewer.ID, detail.ID)
		if err != nil {
			return nil, err
		}
		detail.HasLiked = liked
	}
	return &detail, nil
}

func (s *PostService) List(ctx context.Context, filter store.PostFilter) ([]models.Post, error) {
	return s.store.Posts.Search(s.db.WithContext(ctx), filter)
}

func (s *PostService) Create(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	tx := s.db.WithContext(ctx)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title must not be empty")
	}
	if err := s.checkCategory(tx, in.CategoryID); err != nil {
		return nil, err
	}

	post, err := s.store.Posts.CreateWithTags(tx, store.PostCreate{
		Title:      title,
		Text:       in.Text,
		Slug:       utils.Slugify(title),
		UserID:     actor.ID,
		CategoryID: in.CategoryID,
	}, in.Tags)
	if err != nil {
		return nil, err
	}

	s.log.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("user_id", actor.ID), zap.String("slug", post.Slug))
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actor *models.User, id uint, in PostUpdate) (*models.Post, error) {
	tx := s.db.WithContext(ctx)

	existing, err := s.owned(tx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title must not be empty")
	}
	patch := store.PostPatch{Title: in.Title, Text: in.Text}
	if in.CategoryID != nil && *in.CategoryID == 0 {
		patch.ClearCategory = true
	} else {
		if err := s.checkCategory(tx, in.CategoryID); err != nil {
			return nil, err
		}
		patch.CategoryID = in.CategoryID
	}

	post, err := s.store.Posts.UpdateWithTags(tx, existing, patch, in.Tags)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(post.Slug)
	return post, nil
}

// Delete removes the post if actor owns it or is a superuser.
func (s *PostService) Delete(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	tx := s.db.WithContext(ctx)

	if _, err := s.owned(tx, actor, id); err != nil {
		return nil, err
	}
	removed, err := s.store.Posts.Remove(tx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(removed.Slug)

	s.log.Info("post deleted", zap.Uint("post_id", id), zap.Uint("actor_id", actor.ID))
	return removed, nil
}

func (s *PostService) Like(ctx context.Context, actor *models.User, postID uint) (*LikeSummary, error) {
	tx := s.db.WithContext(ctx)

	post, err := s.store.Posts.Get(tx, map[string]any{"id": postID})
	if err != nil {
		return nil, err
	}
	if err := s.store.Likes.Like(tx, actor.ID, post.ID); err != nil {
		return nil, err
	}
	s.cache.Delete(post.Slug)
	return s.likeSummary(tx, post.ID, actor)
}

func (s *PostService) Unlike(ctx context.Context, actor *models.User, postID uint) (*LikeSummary, error) {
	tx := s.db.WithContext(ctx)

	post, err := s.store.Posts.Get(tx, map[string]any{"id": postID})
	if err != nil {
		return nil, err
	}
	if err := s.store.Likes.Unlike(tx, actor.ID, post.ID); err != nil {
		return nil, err
	}
	s.cache.Delete(post.Slug)
	return s.likeSummary(tx, post.ID, actor)
}

// Likes reports the like count of a post and whether viewer (may be nil)
// is among the likers.
func (s *PostService) Likes(ctx context.Context, slug string, viewer *models.User) (*LikeSummary, error) {
	tx := s.db.WithContext(ctx)

	post, err := s.store.Posts.Get(tx, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}
	return s.likeSummary(tx, post.ID, viewer)
}

func (s *PostService) likeSummary(tx *gorm.DB, postID uint, viewer *models.User) (*LikeSummary, error) {
	count, err := s.store.Likes.Count(tx, postID)
	if err != nil {
		return nil, err
	}
	summary := &LikeSummary{Count: count}
	if viewer != nil {
		if summary.HasLiked, err = s.store.Likes.HasLiked(tx, viewer.ID, postID); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (s *PostService) owned(tx *gorm.DB, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.store.Posts.Get(tx, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(post.UserID) {
		return nil, apperr.PermissionDenied("not enough permissions")
	}
	return post, nil
}

func (s *PostService) checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.Categories.Get(tx, map[string]any{"id": *id}); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("category does not exist")
		}
		return err
	}
	return nil
}
