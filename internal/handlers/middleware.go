package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

func Cors(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         3600,
	})

	return handler.Handler
}

// RequestLogger is middleware.Logger with the "token" query parameter masked, the
// websocket route accepts a bearer token there.
func RequestLogger(logger middleware.LoggerInterface) func(http.Handler) http.Handler {
	return middleware.RequestLogger(redactingFormatter{
		LogFormatter: &middleware.DefaultLogFormatter{Logger: logger, NoColor: true},
	})
}

type redactingFormatter struct {
	middleware.LogFormatter
}

func (f redactingFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	query := r.URL.Query()
	if query.Has("token") {
		r = r.Clone(r.Context())
		query.Set("token", "REDACTED")
		r.URL.RawQuery = query.Encode()
		r.RequestURI = r.URL.RequestURI()
	}
	return f.LogFormatter.NewLogEntry(r)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows each client IP rpm requests per minute, with bursts up to rpm.
type RateLimiter struct {
	rpm      int
	mutex    sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		rpm = 30
	}
	return &RateLimiter{rpm: rpm, visitors: make(map[string]*visitor)}
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Too many requests"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) get(ip string) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := time.Now()
	if v, exists := l.visitors[ip]; exists {
		v.lastSeen = now
		return v.limiter
	}

	if len(l.visitors) >= 1000 {
		cutoff := now.Add(-10 * time.Minute)
		for key, v := range l.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(l.visitors, key)
			}
		}
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.rpm)), l.rpm)
	l.visitors[ip] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// clientIP expects middleware.RealIP to have already put the forwarded address into RemoteAddr.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
