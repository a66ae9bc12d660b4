package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	defaultLimiterClients = 10_000
	defaultLimiterTTL     = 15 * time.Minute
)

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	PerMinute  int
	Burst      int
	TrustProxy bool // use the first X-Forwarded-For hop as the client address
	MaxClients int
	// OnLimit renders the rejection. Defaults to a plain 429.
	OnLimit http.Handler
}

// RateLimiter throttles requests per client address with a token bucket.
// Idle clients are forgotten after their entry expires.
type RateLimiter struct {
	cfg      RateLimitConfig
	limit    rate.Limit
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter constructs a RateLimiter. PerMinute <= 0 disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultLimiterClients
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Muitas tentativas. Aguarde um minuto e tente novamente.", http.StatusTooManyRequests)
		})
	}
	return &RateLimiter{
		cfg:      cfg,
		limit:    rate.Limit(float64(cfg.PerMinute) / 60),
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, defaultLimiterTTL),
	}
}

// Allow reports whether the client may make another request now.
func (l *RateLimiter) Allow(client string) bool {
	if l.cfg.PerMinute <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.cfg.Burst)
		l.limiters.Add(client, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Middleware wraps next, rejecting clients over their budget with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r, l.cfg.TrustProxy)) {
			retry := 60
			if l.cfg.PerMinute > 0 {
				retry = max(1, 60/l.cfg.PerMinute)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			l.cfg.OnLimit.ServeHTTP(&statusLocked{ResponseWriter: w, code: http.StatusTooManyRequests}, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusLocked sends code whatever status the wrapped handler asks for.
type statusLocked struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (s *statusLocked) WriteHeader(int) {
	if s.wrote {
		return
	}
	s.wrote = true
	s.ResponseWriter.WriteHeader(s.code)
}

func (s *statusLocked) Write(b []byte) (int, error) {
	if !s.wrote {
		s.WriteHeader(s.code)
	}
	return s.ResponseWriter.Write(b)
}

// clientIP returns the caller's address for throttling and logging.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
