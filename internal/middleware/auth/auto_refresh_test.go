package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/authclient"
	"github.com/pay2me/storefront/internal/authz"
)

var secret = []byte("test-secret")

type fakeRefresher struct {
	res *authclient.RefreshResponse
	err error
}

func (f *fakeRefresher) RefreshTokens(context.Context, string, string) (*authclient.RefreshResponse, error) {
	return f.res, f.err
}

func run(t *testing.T, m *AutoRefreshMiddleware, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return rec, c, h(c)
}

func status(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestRequireAuth_BearerToken(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil, authz.DefaultPolicy())
	uid := uuid.New()
	tok, err := SignAccessToken(uid, "user", secret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec, c, err := run(t, m, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, ok := UserID(c)
	require.True(t, ok)
	assert.Equal(t, uid, got)
	assert.Equal(t, "user", Role(c))
}

func TestRequireAuth_MissingAndInvalid(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil, authz.DefaultPolicy())

	_, _, err := run(t, m, m.RequireAuth, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, status(err))

	forged, err := SignAccessToken(uuid.New(), "admin", []byte("other"), time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: forged})
	_, _, err = run(t, m, m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, status(err))
}

func TestRequire_PolicyDenies(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil, authz.DefaultPolicy())
	tok, err := SignAccessToken(uuid.New(), "user", secret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	_, _, err = run(t, m, m.Require(authz.ActionViewAllOrders), req)
	assert.Equal(t, http.StatusForbidden, status(err))

	staff, err := SignAccessToken(uuid.New(), "staff", secret, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+staff)
	_, _, err = run(t, m, m.Require(authz.ActionViewAllOrders), req)
	assert.NoError(t, err)
}

func TestOptional(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil, authz.DefaultPolicy())

	rec, c, err := run(t, m, m.Optional, httptest.NewRequest(http.MethodPost, "/cart/add/1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := UserID(c)
	assert.False(t, ok)

	expired, err := SignAccessToken(uuid.New(), "user", secret, -time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: expired})
	rec, c, err = run(t, m, m.Optional, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = UserID(c)
	assert.False(t, ok)
	assert.Empty(t, rec.Result().Cookies(), "stale cookies are left alone")

	uid := uuid.New()
	tok, err := SignAccessToken(uid, "user", secret, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	_, c, err = run(t, m, m.Optional, req)
	require.NoError(t, err)
	got, ok := UserID(c)
	require.True(t, ok)
	assert.Equal(t, uid, got)
}

func TestRequireAuth_RefreshesExpiredCookie(t *testing.T) {
	uid := uuid.New()
	expired, err := SignAccessToken(uid, "user", secret, -time.Minute)
	require.NoError(t, err)
	fresh, err := SignAccessToken(uid, "user", secret, time.Minute)
	require.NoError(t, err)

	ref := &fakeRefresher{res: &authclient.RefreshResponse{
		AccessToken:  fresh,
		RefreshToken: "r2",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}}
	m := NewAutoRefreshMiddleware(secret, ref, authz.DefaultPolicy())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: expired})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r1"})
	rec, c, err := run(t, m, m.RequireAuth, req)
	require.NoError(t, err)

	got, _ := UserID(c)
	assert.Equal(t, uid, got)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, fresh, cookies[0].Value)
	assert.Equal(t, "r2", cookies[1].Value)
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	expired, err := SignAccessToken(uuid.New(), "user", secret, -time.Minute)
	require.NoError(t, err)
	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{err: errors.New("revoked")}, authz.DefaultPolicy())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: expired})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r1"})
	rec, _, err := run(t, m, m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, status(err))

	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}
