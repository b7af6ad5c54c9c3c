package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
	"github.com/open-rails/downloadkit/subscription"
)

func HandlePlansGET(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscription) {
			ginutil.TooMany(c)
			return
		}
		plans, err := svc.ListPlans(c.Request.Context())
		if err != nil {
			ginutil.ServerErr(c, "plans_lookup_failed")
			return
		}
		if plans == nil {
			plans = []subscription.Plan{}
		}
		c.JSON(http.StatusOK, plans)
	}
}
