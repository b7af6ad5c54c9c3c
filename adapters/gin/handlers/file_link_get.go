package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
)

// HandleFileLinkGET redeems a file link token and redirects to the artifact.
// Tokens are single-audience and short-lived; an expired or unknown token is
// indistinguishable from one that never existed.
func HandleFileLinkGET(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLFileLink) {
			ginutil.TooMany(c)
			return
		}
		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			ginutil.BadRequest(c, "missing_token")
			return
		}
		target, ok, err := svc.ResolveLink(c.Request.Context(), token)
		if err != nil {
			ginutil.ServerErr(c, "link_resolve_failed")
			return
		}
		if !ok {
			ginutil.NotFound(c, "link_expired")
			return
		}
		if target.Filename != "" {
			c.Header("Content-Disposition", `attachment; filename="`+target.Filename+`"`)
		}
		c.Redirect(http.StatusFound, target.URL)
	}
}
