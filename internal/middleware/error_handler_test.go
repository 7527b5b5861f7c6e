package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundaryEcho(logs *bytes.Buffer) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.New(logs))
	e.Use(AssignRequestID(), Recover(), ParseJSONBody(DefaultBodyLimit))

	return e
}

func TestErrorHandler_GenericResponse(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.GET("/fail", func(echo.Context) error {
		return errors.New("pq: password authentication failed for user admin")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, GenericFailureMessage, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))

	assert.Contains(t, logs.String(), "password authentication failed")
	assert.Contains(t, logs.String(), rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorHandler_HTTPErrorsAreNotLeaked(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.GET("/teapot", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "internal reason")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "internal reason")
}

func TestErrorHandler_MalformedJSON(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.POST("/users", func(c echo.Context) error {
		t.Error("handler must not run")
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name": oops}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, GenericFailureMessage, rec.Body.String())
	assert.Contains(t, logs.String(), "parse request body")
}

func TestErrorHandler_Panic(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.GET("/panic", func(echo.Context) error { panic("nil map write") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, GenericFailureMessage, rec.Body.String())
	assert.Contains(t, logs.String(), "nil map write")
}

func TestErrorHandler_RouteMissKeepsStatus(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.GET("/users", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot GET /nope", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Empty(t, logs.String(), "route misses are not failures")
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusAccepted, "done"))

	ErrorHandler(zerolog.New(&logs))(errors.New("late failure"), c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
	assert.Empty(t, logs.String())
}

func TestErrorHandler_Head(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	e := newBoundaryEcho(&logs)
	e.HEAD("/fail", func(echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
}
