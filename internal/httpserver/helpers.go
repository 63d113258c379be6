package httpserver

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/middleware/auth"
	sessionmw "github.com/pay2me/storefront/internal/middleware/session"
)

const defaultPageSize = 10

var errUnauthorized = errors.New("unauthorized")

func userID(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.UserID(c)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

func sessionToken(c echo.Context) string {
	return sessionmw.Token(c)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(v), nil
}

// fail logs the failure at the level its status deserves and returns the
// matching echo error.
func fail(l *slog.Logger, event string, status int, reason string, err error) error {
	if status >= 500 {
		l.Error(event, "status", status, "reason", reason, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", reason, "error", err)
	}
	return echo.NewHTTPError(status, reason)
}
