package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/records"
	"github.com/open-rails/downloadkit/service"
)

func HandleDownloadRecordPOST(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLDownloadRecord) {
			ginutil.TooMany(c)
			return
		}
		var req records.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_body")
			return
		}
		uid, _ := c.Get("auth.user_id")
		req.UserID = uid.(string)
		if req.AssetID == "" {
			ginutil.BadRequest(c, "missing_asset_id")
			return
		}
		res, err := svc.RecordDownload(c.Request.Context(), req)
		if err != nil {
			writeRecordErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// writeRecordErr keeps the denial wording in the error envelope; clients
// classify on that text.
func writeRecordErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssetNotFound):
		ginutil.NotFound(c, "asset_not_found")
	case errors.Is(err, service.ErrDailyQuotaExceeded),
		errors.Is(err, service.ErrPremiumCreditSpent),
		errors.Is(err, service.ErrStandardCreditSpent),
		errors.Is(err, service.ErrSubscriptionMissing):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSubscriptionRequired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "an active subscription is required"})
	default:
		ginutil.ServerErr(c, "record_failed")
	}
}
