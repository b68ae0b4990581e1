package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ispnet/internal/metrics"
)

type ctxKeyRequestID struct{}

// RequestID returns the request id stored by the RequestID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// statusRecorder captures status and size while still supporting SSE
// flushing and WebSocket hijacking.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware wraps the mux with request ids, panic recovery, rate limiting,
// access logging and request metrics, outermost first.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return s.requestID(s.accessLog(s.recoverer(s.rateLimit(next))))
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		// ServeMux fills in Pattern; unmatched paths share one label
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		code := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, code).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route, code).Observe(dur.Seconds())
		s.Log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", dur),
			zap.String("tenant", r.Header.Get("X-Tenant-Id")),
			zap.String("requestId", RequestID(r.Context())),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.Log.Error("handler panic", zap.Any("panic", v), zap.String("path", r.URL.Path), zap.Stack("stack"))
				writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "", r.URL.Path)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies the per-tenant budget to /v1/ endpoints only.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter != nil && strings.HasPrefix(r.URL.Path, "/v1/") {
			_, tenant := s.withTenant(r)
			if !s.Limiter.Allow(tenant) {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", "1")
				writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded for tenant "+tenant, r.URL.Path)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// TenantLimiter keeps one token bucket per tenant. A nil limiter or one
// built with rps <= 0 admits everything.
type TenantLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewTenantLimiter(rps float64, burst int) *TenantLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &TenantLimiter{rps: rate.Limit(rps), burst: burst, limiters: map[string]*rate.Limiter{}}
}

func (l *TenantLimiter) Allow(tenant string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[tenant]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[tenant] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
