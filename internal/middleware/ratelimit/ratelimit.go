// Package ratelimit applies a fixed one-minute window per client.
package ratelimit

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"zoexpense/internal/log"
)

type clientInfo struct {
	windowStart time.Time
	requests    int
}

type Config struct {
	RequestsPerMinute int
	// Methods limits which methods are counted; empty counts all.
	Methods []string
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, Methods: []string{http.MethodPost}}
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	config  Config
	logger  *log.Logger
	now     func() time.Time
}

func NewLimiter(config Config, logger *log.Logger) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	return &Limiter{
		clients: make(map[string]*clientInfo),
		config:  config,
		logger:  logger.WithComponent(log.ComponentRateLimit),
		now:     time.Now,
	}
}

// Allow counts one request from clientIP and reports whether it is within
// the limit.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.windowStart) >= time.Minute {
		rl.clients[clientIP] = &clientInfo{windowStart: now, requests: 1}
		return true
	}
	c.requests++
	return c.requests <= rl.config.RequestsPerMinute
}

// Run drops idle clients every interval until ctx is done.
func (rl *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *Limiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-10 * time.Minute)
	removed := 0
	for ip, c := range rl.clients {
		if c.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware answers 429 with Retry-After once a client exceeds the limit.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(rl.config.Methods) > 0 && !slices.Contains(rl.config.Methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ip := extractIP(r)
			if !rl.Allow(ip) {
				rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
