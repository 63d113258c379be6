// Package sessionmw gives every browser an opaque session token used to key
// its cart and pending checkout.
package sessionmw

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "sessionid"
	ctxKey     = "session_id"
)

type Config struct {
	TTL    time.Duration
	Secure bool
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if ck, err := c.Cookie(CookieName); err == nil {
				if _, perr := uuid.Parse(ck.Value); perr == nil {
					token = ck.Value
				}
			}
			if token == "" {
				token = uuid.NewString()
			}

			// refreshed on every request so an active session keeps sliding
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(ctxKey, token)
			return next(c)
		}
	}
}

func Token(c echo.Context) string {
	t, _ := c.Get(ctxKey).(string)
	return t
}
