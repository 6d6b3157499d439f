package middleware

import (
	"savepaws-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is the authenticated caller, resolved upstream by the gateway
// and forwarded via headers.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Principal reads the forwarded identity headers into the request context.
func PrincipalResolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal{
			UserID: c.GetHeader("X-User-ID"),
			Role:   c.GetHeader("X-User-Role"),
		}
		if p.Role == "" {
			p.Role = RoleUser
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}

// RequireUser rejects requests with no forwarded identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c).UserID == "" {
			c.AbortWithStatusJSON(errutil.StatusUnauthorized.HTTPStatus(), errorBody{
				Success: false,
				Message: "authentication required",
				Code:    string(errutil.StatusUnauthorized),
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose principal does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p.UserID == "" {
			c.AbortWithStatusJSON(errutil.StatusUnauthorized.HTTPStatus(), errorBody{
				Success: false,
				Message: "authentication required",
				Code:    string(errutil.StatusUnauthorized),
			})
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(errutil.StatusForbidden.HTTPStatus(), errorBody{
				Success: false,
				Message: "admin access required",
				Code:    string(errutil.StatusForbidden),
			})
			return
		}
		c.Next()
	}
}
