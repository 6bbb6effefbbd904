package handlers

import (
	"net/http"

	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type updateCommentRequest struct {
	Text     *string `json:"text" binding:"omitempty,min=1,max=2000"`
	IsActive *bool   `json:"is_active"`
}

// List returns top-level comments, optionally for one post.
func (h *CommentHandler) List(c *gin.Context) {
	skip, limit := pagination(c)
	var postID *uint
	if raw := c.Query("post_id"); raw != "" {
		id, ok := utils.StringToUint(raw)
		if !ok {
			badRequestMsg(c, "invalid post_id")
			return
		}
		postID = &id
	}

	comments, err := h.comments.List(c.Request.Context(), skip, limit, postID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Create handles both a top-level comment and, when :comment_id is
// present, a reply.
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)
	if c.Param("comment_id") == "" {
		comment, err := h.comments.Create(ctx, user, postID, req.Text)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
		return
	}

	parentID, ok := idParam(c, "comment_id")
	if !ok {
		return
	}
	comment, err := h.comments.Reply(ctx, user, postID, parentID, req.Text)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), currentUser(c), id, services.CommentUpdate{
		Text:     req.Text,
		IsActive: req.IsActive,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
