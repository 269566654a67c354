package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"promptpilot.app/cloud/internal/logger"
)

type RateLimit interface {
	Allow(addr string) bool
}

type WindowData struct {
	count       int
	windowStart time.Time
}

type FixedWindowLimitter struct {
	maxRequests int
	window      time.Duration
	requests    map[string]*WindowData
	mutex       sync.Mutex
}

func New(maxRequests int, interval time.Duration) *FixedWindowLimitter {
	return &FixedWindowLimitter{
		maxRequests: maxRequests,
		window:      interval,
		requests:    make(map[string]*WindowData),
	}
}

func (rl *FixedWindowLimitter) Allow(addr string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	wd := rl.requests[addr]

	// no data, or the previous window has expired
	if wd == nil || now.Sub(wd.windowStart) > rl.window {
		if rl.maxRequests == 0 {
			return false
		}

		rl.requests[addr] = &WindowData{
			count:       1,
			windowStart: now,
		}
		return true
	}

	if wd.count >= rl.maxRequests {
		return false
	}
	wd.count++

	return true
}

// Middleware rejects requests past the per-address window budget with 429.
func (rl *FixedWindowLimitter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			addr = r.RemoteAddr
		}

		if !rl.Allow(addr) {
			logger.Warn("Rate limit exceeded", map[string]interface{}{
				"remote_addr": addr,
				"path":        r.URL.Path,
			})
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
