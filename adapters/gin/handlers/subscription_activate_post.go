package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
)

func HandleSubscriptionActivatePOST(svc *service.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscription) {
			ginutil.TooMany(c)
			return
		}
		var body struct {
			PlanID string `json:"planId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.PlanID) == "" {
			ginutil.BadRequest(c, "missing_plan_id")
			return
		}
		uid, _ := c.Get("auth.user_id")
		sub, err := svc.ActivatePlan(c.Request.Context(), uid.(string), body.PlanID)
		if err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				ginutil.NotFound(c, "plan_not_found")
				return
			}
			ginutil.ServerErr(c, "activation_failed")
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}
