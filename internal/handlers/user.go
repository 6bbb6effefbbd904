package handlers

import (
	"net/http"

	"quill/internal/apperr"
	"quill/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users      *services.UserService
	engagement *services.EngagementService
}

func NewUserHandler(users *services.UserService, engagement *services.EngagementService) *UserHandler {
	return &UserHandler{users: users, engagement: engagement}
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	FullName    string `json:"full_name" binding:"max=100"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsStaff     bool   `json:"is_staff"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"max=100"`
}

type updateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=72"`
	FullName    *string `json:"full_name" binding:"omitempty,max=100"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsStaff     *bool   `json:"is_staff"`
}

func (r updateUserRequest) toUpdate() services.UserUpdate {
	return services.UserUpdate{
		Email:       r.Email,
		Password:    r.Password,
		FullName:    r.FullName,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
		IsStaff:     r.IsStaff,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	skip, limit := pagination(c)
	users, err := h.users.List(c.Request.Context(), skip, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Create(c.Request.Context(), services.UserInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		IsStaff:     req.IsStaff,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Register handles POST /user/open.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.UpdateMe(c.Request.Context(), currentUser(c), req.toUpdate())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequestMsg(c, "file is required")
		return
	}
	if header.Size > services.MaxAvatarSize {
		badRequestMsg(c, "file is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		Fail(c, apperr.Storage(err))
		return
	}
	defer file.Close()

	user, err := h.users.SetAvatar(c.Request.Context(), currentUser(c), file)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update is the superuser path and may change role flags.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.UpdateUser(c.Request.Context(), id, req.toUpdate())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	state, err := h.engagement.Follow(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	state, err := h.engagement.Unfollow(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *UserHandler) Followers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	skip, limit := pagination(c)
	users, err := h.engagement.Followers(c.Request.Context(), id, skip, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Following(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	skip, limit := pagination(c)
	users, err := h.engagement.Following(c.Request.Context(), id, skip, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
