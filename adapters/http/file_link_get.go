package dlhttp

import (
	"net/http"
	"strings"

	"github.com/open-rails/downloadkit/service"
)

// FileLinkHandler redeems file link tokens and redirects to the artifact.
// Mount it under the prefix the service issues links with (default /files/).
func FileLinkHandler(svc *service.Service, prefix string) http.Handler {
	if prefix == "" {
		prefix = "/files/"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.URL.Path, prefix)
		if token == "" || strings.Contains(token, "/") {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}
		target, ok, err := svc.ResolveLink(r.Context(), token)
		if err != nil {
			http.Error(w, "link resolve failed", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		if target.Filename != "" {
			w.Header().Set("Content-Disposition", `attachment; filename="`+target.Filename+`"`)
		}
		http.Redirect(w, r, target.URL, http.StatusFound)
	})
}
