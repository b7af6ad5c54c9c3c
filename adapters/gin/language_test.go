package dlgin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func langFor(t *testing.T, cfg *LanguageConfig, mutate func(*http.Request)) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LanguageMiddleware(cfg))
	var got string
	r.GET("/probe", func(c *gin.Context) {
		got = c.GetString("dl.language")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return got
}

func TestLanguageDefaultsToEnglish(t *testing.T) {
	if got := langFor(t, nil, nil); got != "en" {
		t.Fatalf("language = %q, want en", got)
	}
}

func TestLanguageFromQueryParam(t *testing.T) {
	got := langFor(t, nil, func(r *http.Request) {
		r.URL.RawQuery = "lang=de"
	})
	if got != "de" {
		t.Fatalf("language = %q, want de", got)
	}
}

func TestLanguageQueryBeatsHeader(t *testing.T) {
	got := langFor(t, nil, func(r *http.Request) {
		r.URL.RawQuery = "lang=fr"
		r.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	})
	if got != "fr" {
		t.Fatalf("language = %q, want fr", got)
	}
}

func TestLanguageFromCookie(t *testing.T) {
	got := langFor(t, nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "lang", Value: "es"})
	})
	if got != "es" {
		t.Fatalf("language = %q, want es", got)
	}
}

func TestLanguageFromAcceptHeader(t *testing.T) {
	got := langFor(t, nil, func(r *http.Request) {
		r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	})
	if got != "pt" {
		t.Fatalf("language = %q, want pt", got)
	}
}

func TestLanguageUnsupportedFallsThrough(t *testing.T) {
	cfg := &LanguageConfig{Supported: []string{"en", "de"}}
	got := langFor(t, cfg, func(r *http.Request) {
		r.URL.RawQuery = "lang=fr"
		r.Header.Set("Accept-Language", "de")
	})
	if got != "de" {
		t.Fatalf("language = %q, want de", got)
	}
}

func TestNormalizeLang(t *testing.T) {
	cases := map[string]string{
		"en-US":   "en",
		"DE":      "de",
		"pt_BR":   "pt",
		"":        "",
		"x":       "",
		"english": "",
	}
	for in, want := range cases {
		if got := normalizeLang(in); got != want {
			t.Errorf("normalizeLang(%q) = %q, want %q", in, got, want)
		}
	}
}
