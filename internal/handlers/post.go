package handlers

import (
	"net/http"

	"quill/internal/services"
	"quill/internal/store"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts    *services.PostService
	contacts *services.ContactService
}

func NewPostHandler(posts *services.PostService, contacts *services.ContactService) *PostHandler {
	return &PostHandler{posts: posts, contacts: contacts}
}

type createPostRequest struct {
	Title    string   `json:"title" binding:"required,max=255"`
	Text     string   `json:"text" binding:"required"`
	Category *uint    `json:"category"`
	Tags     []string `json:"tag" binding:"omitempty,dive,max=50"`
}

type updatePostRequest struct {
	Title    *string   `json:"title" binding:"omitempty,max=255"`
	Text     *string   `json:"text"`
	Category *uint     `json:"category"`
	Tags     *[]string `json:"tag" binding:"omitempty,dive,max=50"`
}

// List handles GET /post/?search=&tag=&category=&skip=&limit=
func (h *PostHandler) List(c *gin.Context) {
	skip, limit := pagination(c)
	filter := store.PostFilter{
		Search: c.Query("search"),
		Tags:   append(c.QueryArray("tag"), c.QueryArray("tag[]")...),
		Skip:   skip,
		Limit:  limit,
	}
	if raw := c.Query("category"); raw != "" {
		id, ok := utils.StringToUint(raw)
		if !ok {
			badRequestMsg(c, "invalid category")
			return
		}
		filter.CategoryID = &id
	}

	posts, err := h.posts.List(c.Request.Context(), filter)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) Detail(c *gin.Context) {
	detail, err := h.posts.Get(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *PostHandler) Likes(c *gin.Context) {
	summary, err := h.posts.Likes(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), currentUser(c), services.PostInput{
		Title:      req.Title,
		Text:       req.Text,
		CategoryID: req.Category,
		Tags:       req.Tags,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.posts.Update(c.Request.Context(), currentUser(c), id, services.PostUpdate{
		Title:      req.Title,
		Text:       req.Text,
		CategoryID: req.Category,
		Tags:       req.Tags,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete returns the removed post.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Like(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.posts.Like(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *PostHandler) Unlike(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.posts.Unlike(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Subscribe handles POST /post/subscription/:category_id/:email.
func (h *PostHandler) Subscribe(c *gin.Context) {
	categoryID, ok := idParam(c, "category_id")
	if !ok {
		return
	}
	contact, err := h.contacts.Subscribe(c.Request.Context(), categoryID, c.Param("email"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}
