package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultBodyLimit caps JSON request bodies at 100 KiB.
const DefaultBodyLimit int64 = 100 << 10

var (
	// ErrTrailingData is returned for a body holding more than one JSON value.
	ErrTrailingData = errors.New("unexpected data after top-level JSON value")
	// ErrNotObjectOrArray is returned when the top-level JSON value is a scalar.
	ErrNotObjectOrArray = errors.New("top-level JSON value must be an object or an array")
)

// ParseJSONBody decodes JSON request bodies before the handlers run. Requests
// with other content types pass through untouched. A malformed or oversized
// body fails the stage, and the error goes to the error handler instead of the
// route. Parsing is strict: the body must be exactly one object or array.
//
// The raw bytes are put back on the request, so handlers can still use c.Bind.
func ParseJSONBody(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get(echo.HeaderContentType)) {
				return next(c)
			}

			raw, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, limit))
			_ = req.Body.Close()
			if err != nil {
				return fmt.Errorf("read request body: %w", err)
			}

			if len(bytes.TrimSpace(raw)) > 0 {
				req.Body = io.NopCloser(bytes.NewReader(raw))

				var parsed any
				if err := c.Echo().JSONSerializer.Deserialize(c, &parsed); err != nil {
					return fmt.Errorf("parse request body: %w", err)
				}
				if err := checkStrict(raw, parsed); err != nil {
					return fmt.Errorf("parse request body: %w", err)
				}

				c.Set(parsedBodyKey, parsed)
			}

			req.Body = io.NopCloser(bytes.NewReader(raw))
			req.ContentLength = int64(len(raw))

			return next(c)
		}
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == echo.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}

// checkStrict rejects what a single Decode call lets through: anything after
// the first value, and scalar documents.
func checkStrict(raw []byte, parsed any) error {
	if !json.Valid(raw) {
		return ErrTrailingData
	}

	switch parsed.(type) {
	case map[string]any, []any:
		return nil
	default:
		return ErrNotObjectOrArray
	}
}
