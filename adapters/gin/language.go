package dlgin

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	dlang "github.com/open-rails/downloadkit/lang"
)

// LanguageConfig controls request-language negotiation for localized
// denial and notification strings.
type LanguageConfig struct {
	Supported  []string
	Default    string
	QueryParam string
	CookieName string
}

func (c *LanguageConfig) defaulted() LanguageConfig {
	out := LanguageConfig{Default: "en", QueryParam: "lang", CookieName: "lang"}
	if c == nil {
		return out
	}
	if len(c.Supported) > 0 {
		out.Supported = c.Supported
	}
	if strings.TrimSpace(c.Default) != "" {
		out.Default = c.Default
	}
	if strings.TrimSpace(c.QueryParam) != "" {
		out.QueryParam = c.QueryParam
	}
	if strings.TrimSpace(c.CookieName) != "" {
		out.CookieName = c.CookieName
	}
	return out
}

var reLangCode = regexp.MustCompile(`^[a-z]{2}$`)

// normalizeLang reduces "en-US" style tags to a bare two-letter code.
func normalizeLang(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	if !reLangCode.MatchString(s) {
		return ""
	}
	return s
}

func (cfg LanguageConfig) accepts(code string) string {
	if code == "" {
		return ""
	}
	if len(cfg.Supported) == 0 {
		return code
	}
	for _, s := range cfg.Supported {
		if normalizeLang(s) == code {
			return code
		}
	}
	return ""
}

// resolveLanguage applies the precedence `?lang` > `lang` cookie >
// Accept-Language header > default.
func resolveLanguage(c *gin.Context, cfg LanguageConfig) string {
	if l := cfg.accepts(normalizeLang(c.Query(cfg.QueryParam))); l != "" {
		return l
	}
	if cv, err := c.Cookie(cfg.CookieName); err == nil {
		if l := cfg.accepts(normalizeLang(cv)); l != "" {
			return l
		}
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		if i := strings.IndexByte(part, ';'); i >= 0 {
			part = part[:i]
		}
		if l := cfg.accepts(normalizeLang(part)); l != "" {
			return l
		}
	}
	if l := cfg.accepts(normalizeLang(cfg.Default)); l != "" {
		return l
	}
	return "en"
}

// LanguageMiddleware infers request language and attaches it to the request context.
func LanguageMiddleware(cfg *LanguageConfig) gin.HandlerFunc {
	c := cfg.defaulted()
	return func(g *gin.Context) {
		lang := resolveLanguage(g, c)
		g.Set("dl.language", lang)
		g.Request = g.Request.WithContext(dlang.WithLanguage(g.Request.Context(), lang))
		g.Next()
	}
}
