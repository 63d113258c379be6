// Package csrf protects cookie-authenticated form posts. Requests carrying a
// bearer token and gateway callbacks are exempt.
package csrf

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	CookieName = "XSRF-TOKEN"
	HeaderName = "X-CSRF-Token"
	FormField  = "csrf_token"
	ContextKey = "csrf_token"
)

type Config struct {
	Secure            bool
	MaxAge            time.Duration
	EnforceSameOrigin bool
	SkipPaths         []string
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	skip := map[string]struct{}{}
	for _, p := range cfg.SkipPaths {
		skip[strings.TrimRight(p, "/")] = struct{}{}
	}

	skipper := func(c echo.Context) bool {
		if _, ok := skip[strings.TrimRight(c.Request().URL.Path, "/")]; ok {
			return true
		}
		return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}

	token := middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        skipper,
		TokenLookup:    "header:" + HeaderName + ",form:" + FormField,
		ContextKey:     ContextKey,
		CookieName:     CookieName,
		CookiePath:     "/",
		CookieMaxAge:   int(cfg.MaxAge.Seconds()),
		CookieSecure:   cfg.Secure,
		CookieSameSite: http.SameSiteLaxMode,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := token(next)
		return func(c echo.Context) error {
			if cfg.EnforceSameOrigin && !skipper(c) && !safeMethod(c.Request().Method) && !sameOrigin(c.Request()) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			return guarded(c)
		}
	}
}

func safeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// sameOrigin accepts requests without Origin or Referer; the token check
// still applies to them.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
