package csrf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{EnforceSameOrigin: true, SkipPaths: []string{"/payment/webhook/"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/checkout", ok)
	e.POST("/checkout", ok)
	e.POST("/payment/webhook", ok)
	return e
}

func TestCSRF_TokenRoundTrip(t *testing.T) {
	e := newServer()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var token string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	req.Header.Set(HeaderName, token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	req.Header.Set(HeaderName, "wrong")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_CrossOriginRejected(t *testing.T) {
	e := newServer()
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(""))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_Exemptions(t *testing.T) {
	e := newServer()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment/webhook", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
