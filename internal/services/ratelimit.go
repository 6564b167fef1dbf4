package services

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FixedWindowLimiter admits up to limit requests per identity within a fixed
// window. Counters live in this process only; horizontally scaled instances
// each enforce their own quota.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

type fixedWindow struct {
	start time.Time
	count int
}

func NewFixedWindowLimiter(limit int, window time.Duration, logger *slog.Logger) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		windows: make(map[string]*fixedWindow),
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Allow admits or rejects one request for the given key. On rejection the
// returned duration says how long until the window resets.
func (l *FixedWindowLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.Sub(w.start) >= l.window {
		l.windows[key] = &fixedWindow{start: now, count: 1}
		return true, 0
	}

	if w.count >= l.limit {
		return false, l.window - now.Sub(w.start)
	}

	w.count++
	return true, 0
}

// StartCleanup drops windows that have lapsed, keeping the map bounded.
func (l *FixedWindowLimiter) StartCleanup(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.Sub(w.start) >= l.window {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}()
}

// IPRateLimiter smooths the anonymous redirect path with a token bucket per
// client IP.
type IPRateLimiter struct {
	ips    map[string]*rate.Limiter
	mu     sync.RWMutex
	r      rate.Limit
	b      int
	logger *slog.Logger
}

func NewIPRateLimiter(r rate.Limit, b int, logger *slog.Logger) *IPRateLimiter {
	limiter := &IPRateLimiter{
		ips:    make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		logger: logger,
	}

	return limiter
}

func (i *IPRateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			i.mu.Lock()
			if len(i.ips) > 10000 {
				i.logger.Info("Cleaning up rate limiter map", "count", len(i.ips))
				i.ips = make(map[string]*rate.Limiter)
			}
			i.mu.Unlock()
		}
	}()
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}
