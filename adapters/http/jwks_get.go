// Package dlhttp exposes the framework-free HTTP pieces of the download
// service for hosts that do not run gin.
package dlhttp

import (
	"net/http"

	tokenkit "github.com/open-rails/downloadkit/token"
)

// JWKSHandler serves the key source's public JWKS document.
func JWKSHandler(keys tokenkit.KeySource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenkit.ServeJWKS(w, r, tokenkit.JWKSFromSource(keys))
	})
}
