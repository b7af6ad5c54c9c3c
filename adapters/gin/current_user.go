package dlgin

import (
	"github.com/gin-gonic/gin"

	dlang "github.com/open-rails/downloadkit/lang"
)

// UserView is a unified snapshot of the caller for handlers, populated from
// the verified token claims.
type UserView struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Language string `json:"language"`

	// Source is "claims" for an authenticated caller, "none" otherwise.
	Source string `json:"source"`
}

// CurrentUser returns the caller snapshot and whether the request is
// authenticated.
func CurrentUser(c *gin.Context) (UserView, bool) {
	reqLang := "en"
	if v, ok := dlang.LanguageFromContext(c.Request.Context()); ok {
		reqLang = v
	}
	if uid, ok := UserID(c); ok {
		return UserView{
			UserID:   uid,
			Email:    c.GetString("auth.email"),
			Name:     c.GetString("auth.name"),
			Language: reqLang,
			Source:   "claims",
		}, true
	}
	return UserView{Language: reqLang, Source: "none"}, false
}
