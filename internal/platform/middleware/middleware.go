// Package middleware provides the HTTP middleware chain shared by all
// route groups.
package middleware

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"streamlog/internal/stream/timer"
	"streamlog/pkg/requestcontext"
)

// RequestID assigns a correlation id to every request, honoring one
// supplied by an upstream proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation id from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

// Recovery converts handler panics into 500 responses.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", GetRequestID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Timeout bounds request handling.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContentTypeJSON rejects payload-carrying requests that do not declare
// JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":"unsupported media type"}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ClientMetadata extracts client IP, User-Agent, agent classification
// and multi-site ids into the request context. Applied early so every
// later layer, the record logger included, sees them.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ip := clientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")
		ctx = requestcontext.WithClientIP(ctx, ip)
		ctx = requestcontext.WithUserAgent(ctx, ua)

		agent := requestcontext.ClassifyAgent(r.Header.Get("X-Stream-Agent"), ua)
		ctx = requestcontext.WithAgent(ctx, agent)

		if siteID := headerInt64(r, "X-Stream-Site-ID"); siteID > 0 {
			ctx = requestcontext.WithSiteID(ctx, siteID)
		}
		if blogID := headerInt64(r, "X-Stream-Blog-ID"); blogID > 0 {
			ctx = requestcontext.WithBlogID(ctx, blogID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Transaction arms a per-request transaction timer so every record
// logged during the request carries timing meta.
func Transaction(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tx := timer.New()
		tx.Start()
		defer tx.Reset()
		next.ServeHTTP(w, r.WithContext(timer.WithTransaction(r.Context(), tx)))
	})
}

func headerInt64(r *http.Request, name string) int64 {
	v := r.Header.Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// clientIPFromRequest extracts the client IP, handling proxies and load
// balancers. Headers carry client-controlled text, so every candidate
// is validated; a record's ip is empty rather than garbage.
func clientIPFromRequest(r *http.Request) string {
	var candidates []string
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the original client.
		first := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			first = xff[:idx]
		}
		candidates = append(candidates, strings.TrimSpace(first))
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		candidates = append(candidates, strings.TrimSpace(xri))
	}
	if addr := r.RemoteAddr; addr != "" {
		// "ip:port" or "[::1]:port"
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			addr = strings.Trim(addr[:idx], "[]")
		}
		candidates = append(candidates, addr)
	}

	for _, candidate := range candidates {
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}
