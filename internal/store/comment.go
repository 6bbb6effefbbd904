package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
)

type CommentCreate struct {
	Text     string
	UserID   uint
	PostID   uint
	ParentID *uint
}

func (in CommentCreate) Build() models.Comment {
	return models.Comment{
		Text:     in.Text,
		IsActive: true,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
}

type CommentPatch struct {
	Text     *string
	IsActive *bool
}

func (p CommentPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Text != nil {
		changes["text"] = *p.Text
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	return changes
}

type Comments struct {
	CRUD[models.Comment, CommentCreate, CommentPatch]
}

// GetTopLevel returns a comment that has no parent, with its reply tree.
// Replies are not reachable here on their own.
func (c Comments) GetTopLevel(db *gorm.DB, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := db.Where("id = ? AND parent_id IS NULL", id).First(&comment).Error; err != nil {
		return nil, translate(err, "comment")
	}
	if err := c.LoadReplies(db, []*models.Comment{&comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetMultiTopLevel pages through top-level comments, optionally of one post,
// each with its reply tree.
func (c Comments) GetMultiTopLevel(db *gorm.DB, skip, limit int, postID *uint) ([]*models.Comment, error) {
	q := db.Where("parent_id IS NULL")
	if postID != nil {
		q = q.Where("post_id = ?", *postID)
	}

	roots := make([]*models.Comment, 0)
	if err := q.Order("id ASC").Offset(skip).Limit(limit).Find(&roots).Error; err != nil {
		return nil, translate(err, "comment")
	}
	if err := c.LoadReplies(db, roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// LoadReplies fills Replies for roots and every descendant, one query per
// depth level.
func (Comments) LoadReplies(db *gorm.DB, roots []*models.Comment) error {
	level := roots
	for len(level) > 0 {
		ids := make([]uint, len(level))
		byID := make(map[uint]*models.Comment, len(level))
		for i, comment := range level {
			comment.Replies = []*models.Comment{}
			ids[i] = comment.ID
			byID[comment.ID] = comment
		}

		var children []*models.Comment
		if err := db.Where("parent_id IN ?", ids).Order("id ASC").Find(&children).Error; err != nil {
			return translate(err, "comment")
		}
		for _, child := range children {
			parent := byID[*child.ParentID]
			parent.Replies = append(parent.Replies, child)
		}
		level = children
	}
	return nil
}
