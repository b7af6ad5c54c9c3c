// Package dlgin mounts the download service on a gin router.
package dlgin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	tokenkit "github.com/open-rails/downloadkit/token"
)

// AuthRequired verifies the bearer token and stores the caller's identity on
// the gin context under auth.* keys.
func AuthRequired(acceptor *tokenkit.Acceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			ginutil.Unauthorized(c, "missing_token")
			return
		}
		claims, err := acceptor.Verify(c.Request.Context(), raw)
		if err != nil {
			ginutil.Unauthorized(c, "invalid_token")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AuthOptional verifies a bearer token when one is present and otherwise
// lets the request through anonymously.
func AuthOptional(acceptor *tokenkit.Acceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw != "" {
			if claims, err := acceptor.Verify(c.Request.Context(), raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *tokenkit.Claims) {
	c.Set("auth.user_id", claims.Subject)
	c.Set("auth.email", claims.Email)
	c.Set("auth.name", claims.Name)
}

// UserID returns the authenticated caller's id, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("auth.user_id")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
