package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
)

func HandleSubscriptionGET(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscription) {
			ginutil.TooMany(c)
			return
		}
		userID := strings.TrimSpace(c.Param("userId"))
		uid, _ := c.Get("auth.user_id")
		// Users only read their own subscription.
		if userID == "" || userID != uid.(string) {
			ginutil.Forbidden(c, "forbidden")
			return
		}
		sub, err := svc.GetUserSubscription(c.Request.Context(), userID)
		if err != nil {
			ginutil.ServerErr(c, "subscription_lookup_failed")
			return
		}
		if sub == nil {
			ginutil.NotFound(c, "no_subscription")
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}
