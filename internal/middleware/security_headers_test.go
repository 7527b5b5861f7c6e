package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var expectedSecurityHeaders = map[string]string{
	"Content-Security-Policy": "default-src 'self'; script-src 'self' trusted.com; style-src 'self' trusted.com; " +
		"img-src 'self' img.trusted.com; connect-src 'self' api.trusted.com; " +
		"font-src 'self' fonts.googleapis.com fonts.gstatic.com; object-src 'none'; upgrade-insecure-requests",
	"X-Frame-Options":           "SAMEORIGIN",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
	"X-Content-Type-Options":    "nosniff",
	"X-XSS-Protection":          "1; mode=block",
	"X-Download-Options":        "noopen",
}

func assertSecurityHeaders(t *testing.T, h http.Header) {
	t.Helper()

	for name, want := range expectedSecurityHeaders {
		assert.Equal(t, want, h.Get(name), name)
	}
	assert.Empty(t, h.Get("X-Powered-By"))
}

func TestSecurityHeaders_AllResponses(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(SecurityHeaders(DefaultSecurityPolicy()))
	e.GET("/ok", func(c echo.Context) error {
		c.Response().Header().Set("X-Powered-By", "Echo")
		return c.String(http.StatusOK, "fine")
	})
	e.GET("/fail", func(c echo.Context) error { return errors.New("db down") })

	for _, path := range []string{"/ok", "/fail", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assertSecurityHeaders(t, rec.Header())
	}
}

func TestSecurityHeaders_PoweredByStripped(t *testing.T) {
	t.Parallel()

	h := SecurityHeaders(DefaultSecurityPolicy())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	rec.Header().Set("X-Powered-By", "something")
	_ = h(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))

	assert.Empty(t, rec.Header().Get("X-Powered-By"))
}

func TestSecurityHeaders_PoweredBySetByErrorPath(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(SecurityHeaders(DefaultSecurityPolicy()))
	e.GET("/fail", func(c echo.Context) error {
		c.Response().Header().Set("X-Powered-By", "Echo")
		return errors.New("db down")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertSecurityHeaders(t, rec.Header())
}

func TestSecurityHeaders_ResponsesDoNotShareValues(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(SecurityHeaders(DefaultSecurityPolicy()))
	e.GET("/embed", func(c echo.Context) error {
		c.Response().Header()["X-Frame-Options"][0] = "DENY"
		return c.NoContent(http.StatusOK)
	})
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/embed", nil))
	assert.Equal(t, "DENY", first.Header().Get("X-Frame-Options"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assertSecurityHeaders(t, rec.Header())
}

func TestSecurityPolicy_CustomOrigins(t *testing.T) {
	t.Parallel()

	p := SecurityPolicy{ScriptSrc: []string{"cdn.example.org"}, HSTSMaxAge: 60}

	assert.Contains(t, p.ContentSecurityPolicy(), "script-src 'self' cdn.example.org;")
	assert.Contains(t, p.ContentSecurityPolicy(), "style-src 'self';")
	assert.Equal(t, "max-age=60; includeSubDomains; preload", p.Headers().Get("Strict-Transport-Security"))
}
