package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	applog "shoplist/internal/log"
	"shoplist/internal/store"
)

// maxBodyBytes bounds JSON request bodies other than imports.
const maxBodyBytes = 64 << 10

type Server struct {
	http.Server
	store       *store.Store
	logger      *applog.Logger
	headers     HeadersConfig
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// Option customises a Server.
type Option func(*Server)

// WithRateLimit caps mutating requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.rateLimiter.stop()
		s.rateLimiter = newRateLimiter(perMinute)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, st *store.Store, logger *applog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		store:       st,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		headers:     DefaultHeadersConfig(),
		rateLimiter: newRateLimiter(120),
		metrics:     &securityMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)

	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleAddItem)
	mux.HandleFunc("DELETE /api/items", s.handleClearItems)
	mux.HandleFunc("PATCH /api/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)
	mux.HandleFunc("POST /api/items/{id}/toggle", s.handleToggleItem)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)

	mux.HandleFunc("GET /api/filter", s.handleGetFilter)
	mux.HandleFunc("PATCH /api/filter", s.handleSetFilter)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	s.Handler = applog.Middleware(s.logger)(
		applog.RequestIDMiddleware(requestIDFrom)(
			s.withSecurity(mux)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurity adds security headers, rate limiting and request logging.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		s.headers.apply(w)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		allowed, wait := true, time.Duration(0)
		if isMutating(r.Method) {
			allowed, wait = s.rateLimiter.allow(clientIP)
		}
		if allowed {
			next.ServeHTTP(rw, r)
		} else {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			rw.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(rw)
		}

		applog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDFrom reuses a well-formed inbound X-Request-ID or mints a new one.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); validRequestID(id) {
		return id
	}
	return generateRequestID()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
