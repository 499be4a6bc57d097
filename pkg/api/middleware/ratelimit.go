package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures per-client token bucket rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64       // token replenishment rate
	BurstSize         int           // bucket capacity
	CleanupInterval   time.Duration // how often idle buckets are swept
	ClientExpiration  time.Duration // how long an idle bucket survives
	MaxClients        int           // cap on tracked clients
}

// DefaultRateLimitConfig returns limits suitable for a frame-computation API:
// layout clients typically submit a handful of frames per second per session.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		CleanupInterval:   5 * time.Minute,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        10000,
	}
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter tracks a token bucket per client address.
type RateLimiter struct {
	config   *RateLimitConfig
	mu       sync.Mutex
	clients  map[string]*tokenBucket
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop when the limiter is no longer needed.
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		config:   config,
		clients:  make(map[string]*tokenBucket),
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// Allow reports whether the client may make a request now, consuming one
// token if so.
func (rl *RateLimiter) Allow(client string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[client]
	if !ok {
		if len(rl.clients) >= rl.config.MaxClients {
			// Table full: refuse new clients rather than grow without bound.
			return false
		}
		b = &tokenBucket{tokens: float64(rl.config.BurstSize), lastRefill: now}
		rl.clients[client] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * rl.config.RequestsPerSecond
	if max := float64(rl.config.BurstSize); b.tokens > max {
		b.tokens = max
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.config.ClientExpiration)
			rl.mu.Lock()
			for client, b := range rl.clients {
				if b.lastRefill.Before(cutoff) {
					delete(rl.clients, client)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// clientKey extracts the client address used as the bucket key. The port is
// stripped so reconnecting clients share one bucket.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit creates middleware that rejects requests exceeding the limiter's
// budget with 429 and a Retry-After hint.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(clientKey(r)) {
				retry := 1
				if limiter.config.RequestsPerSecond > 0 {
					retry = int(1/limiter.config.RequestsPerSecond) + 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
