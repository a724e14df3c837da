package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/communitycal/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"

	// TierLogin covers register/login; a much lower limit slows down
	// credential stuffing and enumeration attempts.
	TierLogin RateLimitTier = "login"
)

const rateLimitTierKey contextKey = "rateLimitTier"

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 15 * time.Minute
)

func WithRateLimitTier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), rateLimitTierKey, tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimiter tracks one token bucket per (tier, client) pair. Entries not
// seen for limiterTTL are evicted by a background goroutine; callers must
// Stop the limiter on shutdown.
type RateLimiter struct {
	store *limiterStore
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{store: newLimiterStore(cfg)}
}

// Limit enforces the tier recorded on the request context, defaulting to
// the public tier.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := TierPublic
		if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
			tier = value
		}

		limiter := l.store.limiter(tier, clientKey(r))
		if limiter != nil && !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop shuts down the eviction goroutine.
func (l *RateLimiter) Stop() {
	l.store.stop()
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	cfg         config.RateLimitConfig
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters:    make(map[string]*limiterEntry),
		cfg:         cfg,
		stopCleanup: make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, client string) *rate.Limiter {
	perMinute := s.cfg.PublicPerMinute
	if tier == TierLogin {
		perMinute = s.cfg.LoginPerMinute
	}
	if perMinute <= 0 {
		return nil // unlimited
	}

	key := string(tier) + ":" + client

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// cleanupLoop evicts limiters for clients that have gone quiet so the map
// does not grow without bound.
func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) stop() {
	close(s.stopCleanup)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
