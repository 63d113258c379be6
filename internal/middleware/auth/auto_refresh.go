// Package auth verifies access tokens issued by the auth service, refreshes
// expired cookie sessions and enforces the authorization policy per route.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/authclient"
	"github.com/pay2me/storefront/internal/authz"
	"github.com/pay2me/storefront/internal/logging"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Refresher Refresher
	Policy    *authz.Policy
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher, policy *authz.Policy) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{JWTSecret: secret, Refresher: refresher, Policy: policy}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, "")
}

// Require authenticates the caller and then asks the policy whether their
// role may perform action.
func (m *AutoRefreshMiddleware) Require(action authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.authenticate(next, action)
	}
}

// Optional binds the caller when a valid access token is present and lets
// anonymous or stale requests through untouched. It never refreshes.
func (m *AutoRefreshMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, _ := bearerToken(c)
		if raw == "" {
			return next(c)
		}
		claims, err := ParseAccessToken(raw, m.JWTSecret)
		if err != nil {
			return next(c)
		}
		if err := m.bind(c, claims, ""); err != nil {
			logging.FromContext(c.Request().Context()).Debug("optional_auth_ignored", "error", err)
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) authenticate(next echo.HandlerFunc, action authz.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		raw, fromCookie := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := ParseAccessToken(raw, m.JWTSecret)
		if err != nil {
			if !fromCookie || !errors.Is(err, jwt.ErrTokenExpired) {
				clearAuthCookies(c, fromCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			claims, err = m.refresh(c, raw)
			if err != nil {
				l.Warn("token_refresh_failed", "error", err)
				clearAuthCookies(c, true)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
		}

		if err := m.bind(c, claims, action); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) refresh(c echo.Context, access string) (*Claims, error) {
	if m.Refresher == nil {
		return nil, errors.New("token refresh is not configured")
	}
	rc, err := c.Cookie(RefreshCookie)
	if err != nil || rc.Value == "" {
		return nil, errors.New("refresh token missing")
	}

	res, err := m.Refresher.RefreshTokens(c.Request().Context(), rc.Value, access)
	if err != nil {
		return nil, err
	}
	claims, err := ParseAccessToken(res.AccessToken, m.JWTSecret)
	if err != nil {
		return nil, err
	}

	c.SetCookie(CreateCookie(AccessCookie, res.AccessToken, "/", time.Unix(res.AccessExp, 0)))
	c.SetCookie(CreateCookie(RefreshCookie, res.RefreshToken, "/", time.Unix(res.RefreshExp, 0)))
	return claims, nil
}

func (m *AutoRefreshMiddleware) bind(c echo.Context, claims *Claims, action authz.Action) error {
	uid, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	if action != "" && m.Policy != nil {
		if err := m.Policy.Check(claims.Role, action); err != nil {
			logging.FromContext(c.Request().Context()).Warn("access_denied",
				"user_id", uid, "role", claims.Role, "action", string(action))
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
	}

	c.Set(ctxUserID, uid)
	c.Set(ctxRole, claims.Role)

	l := logging.FromContext(c.Request().Context()).With("user_id", uid)
	c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))
	return nil
}

// bearerToken reads the Authorization header first, then the access cookie.
func bearerToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok), false
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value, true
	}
	return "", false
}

func clearAuthCookies(c echo.Context, cookies bool) {
	if !cookies {
		return
	}
	c.SetCookie(DeleteCookie(AccessCookie, "/"))
	c.SetCookie(DeleteCookie(RefreshCookie, "/"))
}

// UserID returns the authenticated caller set by the middleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ctxUserID).(uuid.UUID)
	return id, ok
}

func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
