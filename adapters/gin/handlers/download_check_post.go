package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/service"
)

func HandleDownloadCheckPOST(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLDownloadCheck) {
			ginutil.TooMany(c)
			return
		}
		var req entitlement.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_body")
			return
		}
		// The caller's identity always comes from the token, never the body.
		uid, _ := c.Get("auth.user_id")
		req.UserID = uid.(string)
		if req.AssetID == "" {
			ginutil.BadRequest(c, "missing_asset_id")
			return
		}
		res, err := svc.CheckEligibility(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, service.ErrAssetNotFound) {
				ginutil.NotFound(c, "asset_not_found")
				return
			}
			ginutil.ServerErr(c, "check_failed")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
