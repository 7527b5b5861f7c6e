// Package accesslog appends one line per completed request to an append-only
// file. Lines have a fixed field order:
//
//	<request id> <method> <url> <status> <latency> ms - <content length>
//
// The latency is in milliseconds with three decimals; the content length is the
// number of body bytes sent, or "-" when the response had no body.
package accesslog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const filePermissions = 0o644

// Entry is a single access log line. It is built once the response is complete
// and never changed afterwards.
type Entry struct {
	RequestID     string
	Method        string
	URL           string
	Status        int
	Latency       time.Duration
	ContentLength int64 // negative when unknown
}

// AppendFormat appends the entry, newline included, to buf.
func (e Entry) AppendFormat(buf []byte) []byte {
	buf = append(buf, orDash(e.RequestID)...)
	buf = append(buf, ' ')
	buf = append(buf, e.Method...)
	buf = append(buf, ' ')
	buf = append(buf, e.URL...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(e.Status), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendFloat(buf, float64(e.Latency.Nanoseconds())/float64(time.Millisecond), 'f', 3, 64)
	buf = append(buf, " ms - "...)
	if e.ContentLength < 0 {
		buf = append(buf, '-')
	} else {
		buf = strconv.AppendInt(buf, e.ContentLength, 10)
	}
	return append(buf, '\n')
}

func (e Entry) String() string {
	b := e.AppendFormat(nil)
	return string(b[:len(b)-1])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Sink is the shared writer behind the access log. Concurrent writers are
// serialized, so lines never interleave and land in completion order.
type Sink struct {
	w      io.Writer
	closer io.Closer
}

// Open opens path for appending, creating it when needed. The file stays open
// until Close.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("open access log %s: %w", path, err)
	}
	return &Sink{w: zerolog.SyncWriter(f), closer: f}, nil
}

// NewSink wraps an arbitrary writer.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: zerolog.SyncWriter(w)}
}

// Write appends e with a single write call.
func (s *Sink) Write(e Entry) error {
	_, err := s.w.Write(e.AppendFormat(make([]byte, 0, 128)))
	return err
}

func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Middleware returns the echo stage that writes one Entry per request. Errors
// from later stages are handed to the echo error handler first, so the logged
// status is the one the client received.
func Middleware(sink *Sink, requestID func(echo.Context) string) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:      true,
		LogMethod:       true,
		LogURI:          true,
		LogStatus:       true,
		LogResponseSize: true,
		HandleError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := Entry{
				RequestID:     requestID(c),
				Method:        v.Method,
				URL:           v.URI,
				Status:        v.Status,
				Latency:       v.Latency,
				ContentLength: contentLength(c, v.ResponseSize),
			}
			if err := sink.Write(entry); err != nil {
				log.Error().Err(err).Str("request_id", entry.RequestID).Msg("Failed to write access log entry")
			}
			return nil
		},
	})
}

func contentLength(c echo.Context, written int64) int64 {
	if written > 0 {
		return written
	}
	if h := c.Response().Header().Get(echo.HeaderContentLength); h != "" {
		if n, err := strconv.ParseInt(h, 10, 64); err == nil {
			return n
		}
	}
	return -1
}
