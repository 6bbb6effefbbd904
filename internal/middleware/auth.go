package middleware

import (
	"context"
	"strings"

	"quill/internal/apperr"
	"quill/internal/models"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// LoadUser reads the bearer token, if any, and stores the user in the
// context. Requests without a valid token continue anonymously.
func LoadUser(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token != "" {
			if user, err := authn.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous requests and inactive accounts.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Header("WWW-Authenticate", "Bearer")
			Abort(c, apperr.Unauthorized("not authenticated"))
			return
		}
		if !user.IsActive {
			Abort(c, apperr.PermissionDenied("inactive user"))
			return
		}
		c.Next()
	}
}

// SuperuserRequired must run after AuthRequired.
func SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user == nil || !user.IsSuperuser {
			Abort(c, apperr.PermissionDenied("the user doesn't have enough privileges"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// Abort ends the request with the JSON error body shared by every endpoint.
func Abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
		"detail": apperr.MessageOf(err),
		"code":   kind,
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
