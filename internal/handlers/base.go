package handlers

import (
	"quill/internal/apperr"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Fail writes err as {"detail", "code"} with the status of its kind.
// Storage failures are attached to the context so the request logger
// records the cause.
func Fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindStorage {
		_ = c.Error(err)
	}
	middleware.Abort(c, err)
}

// badRequest reports malformed input, including gin binding errors.
func badRequest(c *gin.Context, err error) {
	Fail(c, apperr.Validation(err.Error()))
}

// pagination reads skip and limit, clamping limit to maxLimit.
func pagination(c *gin.Context) (int, int) {
	skip := utils.StringToInt(c.Query("skip"), 0)
	if skip < 0 {
		skip = 0
	}
	limit := utils.StringToInt(c.Query("limit"), defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	return skip, limit
}

// idParam parses a positive numeric path parameter, failing the request
// otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.StringToUint(c.Param(name))
	if !ok {
		Fail(c, apperr.Validation("invalid "+name))
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func badRequestMsg(c *gin.Context, msg string) {
	Fail(c, apperr.Validation(msg))
}
