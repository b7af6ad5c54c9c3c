package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
)

func HandleSubscriptionCancelPOST(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscription) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")
		if err := svc.CancelSubscription(c.Request.Context(), uid.(string)); err != nil {
			ginutil.ServerErr(c, "cancellation_failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
