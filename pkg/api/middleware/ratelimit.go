package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token buckets.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// CleanupInterval is how often idle buckets are swept; zero disables
	// the background sweep.
	CleanupInterval  time.Duration
	ClientExpiration time.Duration
	// MaxClients bounds the bucket map. New clients past it are refused
	// until a sweep frees room.
	MaxClients int
}

// DefaultRateLimitConfig returns the limits applied to mutating routes.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		CleanupInterval:   5 * time.Minute,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        10000,
	}
}

type bucket struct {
	*rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client id.
type RateLimiter struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
	stop    sync.Once
}

// NewRateLimiter starts the sweeper when cfg.CleanupInterval is set; Stop
// releases it. A nil cfg uses DefaultRateLimitConfig.
func NewRateLimiter(cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		cfg:     *cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go rl.sweep(cfg.CleanupInterval)
	}
	return rl
}

// take spends one token for id. When refused, wait estimates how long
// until a token is available.
func (rl *RateLimiter) take(id string) (ok bool, wait time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	b := rl.buckets[id]
	if b == nil {
		if rl.cfg.MaxClients > 0 && len(rl.buckets) >= rl.cfg.MaxClients {
			rl.mu.Unlock()
			return false, time.Second
		}
		b = &bucket{Limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	if b.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - b.TokensAt(now)
	return false, time.Duration(missing / rl.cfg.RequestsPerSecond * float64(time.Second))
}

// Allow reports whether id may make a request now.
func (rl *RateLimiter) Allow(id string) bool {
	ok, _ := rl.take(id)
	return ok
}

func (rl *RateLimiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.cleanup()
		}
	}
}

// cleanup drops buckets idle longer than ClientExpiration and returns how
// many went.
func (rl *RateLimiter) cleanup() int {
	cutoff := rl.now().Add(-rl.cfg.ClientExpiration)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := len(rl.buckets)
	for id, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, id)
		}
	}
	return n - len(rl.buckets)
}

// Stop ends the sweeper. Repeated calls are no-ops.
func (rl *RateLimiter) Stop() { rl.stop.Do(func() { close(rl.done) }) }

// Clients returns the number of tracked buckets.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// ClientIDFunc names the bucket a request draws from.
type ClientIDFunc func(*http.Request) string

// RateLimit answers 429 with Retry-After once a client's bucket is empty.
// onLimited, if set, runs before the response is written.
func RateLimit(limiter *RateLimiter, clientID ClientIDFunc, onLimited func(r *http.Request, clientID string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		limit := strconv.FormatFloat(limiter.cfg.RequestsPerSecond, 'f', -1, 64)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)
			ok, wait := limiter.take(id)
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if onLimited != nil {
				onLimited(r, id)
			}
			retry := max(1, int(math.Ceil(wait.Seconds())))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", limit)
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded, retry after "+strconv.Itoa(retry)+"s")
		})
	}
}
