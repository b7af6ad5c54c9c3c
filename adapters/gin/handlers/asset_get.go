package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
)

func HandleAssetGET(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAssetGet) {
			ginutil.TooMany(c)
			return
		}
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			ginutil.BadRequest(c, "missing_asset_id")
			return
		}
		asset, err := svc.GetAsset(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrAssetNotFound) {
				ginutil.NotFound(c, "asset_not_found")
				return
			}
			ginutil.ServerErr(c, "asset_lookup_failed")
			return
		}
		c.JSON(http.StatusOK, asset)
	}
}
