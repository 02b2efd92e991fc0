// Package httpx provides HTTP middleware and response helpers for sitegate.
package httpx

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-ID"

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = fmt.Sprintf("site-%d-%d", time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set(HeaderRequestID, requestID)
			}
			w.Header().Set(HeaderRequestID, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					path := "-"
					method := "-"
					requestID := "-"
					if r != nil {
						path = strings.TrimSpace(r.URL.Path)
						method = strings.TrimSpace(r.Method)
						if rid := strings.TrimSpace(r.Header.Get(HeaderRequestID)); rid != "" {
							requestID = rid
						}
					}
					logger.Printf(
						"panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
						method,
						path,
						requestID,
						recovered,
						strings.TrimSpace(string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethods rejects requests outside the allowed methods.
func RequireMethods(methods ...string) Middleware {
	allow := strings.Join(methods, ", ")
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, method := range methods {
				if r.Method == method {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
		})
	}
}

// WriteText writes a plain-text payload with the provided status code.
func WriteText(w http.ResponseWriter, status int, payload string) error {
	return write(w, "text/plain; charset=utf-8", status, payload)
}

// WriteXML writes an XML payload with the provided status code.
func WriteXML(w http.ResponseWriter, status int, payload []byte) error {
	return write(w, "application/xml; charset=utf-8", status, string(payload))
}

// WriteRedirect writes a redirect to location with the given 3xx status.
// Absolute and relative targets are both accepted.
func WriteRedirect(w http.ResponseWriter, r *http.Request, location string, status int) {
	if w == nil {
		return
	}
	if status < 300 || status > 399 {
		status = http.StatusFound
	}
	if r == nil {
		w.Header().Set("Location", location)
		w.WriteHeader(status)
		return
	}
	http.Redirect(w, r, location, status)
}

// Rewrite returns a shallow copy of r addressed to target. The target path
// is percent-encoded and may carry its own query string after the first "?";
// otherwise the original query is kept. The original request is never mutated.
func Rewrite(r *http.Request, target string) *http.Request {
	if r == nil {
		return nil
	}
	escaped, rawQuery, hasQuery := strings.Cut(target, "?")
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		decoded = escaped
	}
	out := r.Clone(r.Context())
	u := *r.URL
	u.Path = decoded
	u.RawPath = ""
	if u.EscapedPath() != escaped {
		u.RawPath = escaped
	}
	if hasQuery {
		u.RawQuery = rawQuery
	}
	out.URL = &u
	out.RequestURI = u.RequestURI()
	return out
}

// EscapePath percent-encodes a decoded URL path.
func EscapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}

// LocalPath collapses any run of leading slashes and backslashes in an
// escaped path to a single "/", so a relative redirect target can never be
// read by a browser as "//host".
func LocalPath(escaped string) string {
	return "/" + strings.TrimLeft(escaped, `/\`)
}

// WithQuery appends rawQuery to target when it is non-empty.
func WithQuery(target string, rawQuery string) string {
	if rawQuery == "" {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + rawQuery
	}
	return target + "?" + rawQuery
}

func write(w http.ResponseWriter, contentType string, status int, payload string) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err := io.WriteString(w, payload)
	return err
}
