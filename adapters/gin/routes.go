package dlgin

import (
	"github.com/gin-gonic/gin"

	"github.com/open-rails/downloadkit/adapters/gin/handlers"
	"github.com/open-rails/downloadkit/adapters/ginutil"
	"github.com/open-rails/downloadkit/service"
	tokenkit "github.com/open-rails/downloadkit/token"
)

// Options wires the handlers to their collaborators. Limiter may be nil.
type Options struct {
	Service  *service.Service
	Acceptor *tokenkit.Acceptor
	Limiter  ginutil.RateLimiter
	Language *LanguageConfig
}

// Register mounts the download endpoints. File links stay public: the token
// itself is the credential. Everything else requires a verified bearer.
func Register(r gin.IRouter, opts Options) {
	svc, rl := opts.Service, opts.Limiter
	r.Use(LanguageMiddleware(opts.Language))

	r.GET("/plans", AuthOptional(opts.Acceptor), handlers.HandlePlansGET(svc, rl))
	r.GET("/files/:token", handlers.HandleFileLinkGET(svc, rl))

	authed := r.Group("", AuthRequired(opts.Acceptor))
	authed.POST("/downloads/check", handlers.HandleDownloadCheckPOST(svc, rl))
	authed.POST("/downloads", handlers.HandleDownloadRecordPOST(svc, rl))
	authed.GET("/assets/:id", handlers.HandleAssetGET(svc, rl))
	authed.GET("/subscriptions/:userId", handlers.HandleSubscriptionGET(svc, rl))
	authed.POST("/subscriptions", handlers.HandleSubscriptionActivatePOST(svc, rl))
	authed.POST("/subscriptions/cancel", handlers.HandleSubscriptionCancelPOST(svc, rl))
}
