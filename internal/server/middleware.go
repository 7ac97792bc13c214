package server

import (
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
	"github.com/Brownie44l1/corehttp/internal/router"
)

// LoggingMiddleware logs every request once it has been answered
func LoggingMiddleware(logger zerolog.Logger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(req *request.Request, res *response.Response) {
			start := time.Now()

			next.ServeHTTP(req, res)

			// Don't log raw headers or cookies
			logger.Info().
				Str("method", sanitize(req.Method)).
				Str("path", sanitize(req.Path)).
				Int("status", int(res.StatusCode())).
				Dur("duration", time.Since(start)).
				Str("remote", req.RemoteAddr).
				Msg("request handled")
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 response. Install it
// inside LoggingMiddleware so the 500 gets logged.
func RecoveryMiddleware(logger zerolog.Logger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(req *request.Request, res *response.Response) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Interface("panic", err).
						Str("stack", string(debug.Stack())).
						Str("path", sanitize(req.Path)).
						Msg("panic recovered")

					sendError(res, response.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(req, res)
		})
	}
}

// MetricsMiddleware records request metrics
func MetricsMiddleware(metrics *Metrics) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(req *request.Request, res *response.Response) {
			start := time.Now()

			next.ServeHTTP(req, res)

			metrics.RecordRequest(res.StatusCode(), time.Since(start))
		})
	}
}

// RateLimiter implements a fixed window limiter per client IP
type RateLimiter struct {
	mu              sync.Mutex
	buckets         map[string]*bucket
	rate            int           // requests per window
	window          time.Duration // time window
	cleanupInterval time.Duration
	now             func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a new rate limiter
// rate: number of requests allowed per window
// window: time window (e.g., 1 minute)
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		buckets:         make(map[string]*bucket),
		rate:            rate,
		window:          window,
		cleanupInterval: window * 2,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	// Start cleanup goroutine to remove old entries
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given IP should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, exists := rl.buckets[ip]
	if !exists {
		rl.buckets[ip] = &bucket{
			tokens:    rl.rate - 1,
			lastReset: now,
		}
		return rl.rate > 0
	}

	// Reset bucket if window has passed
	if now.Sub(b.lastReset) >= rl.window {
		b.tokens = rl.rate - 1
		b.lastReset = now
		return rl.rate > 0
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup removes old bucket entries periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, b := range rl.buckets {
		if now.Sub(b.lastReset) > rl.window*2 {
			delete(rl.buckets, ip)
		}
	}
}

// RateLimitMiddleware answers 429 once a client exceeds the limiter
func RateLimitMiddleware(limiter *RateLimiter) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(req *request.Request, res *response.Response) {
			if !limiter.Allow(clientIP(req.RemoteAddr)) {
				sendError(res, response.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(req, res)
		})
	}
}

// clientIP strips the port from a remote address
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// sendError answers with an empty body unless something was already sent
func sendError(res *response.Response, code response.StatusCode) {
	if res.IsSent() {
		return
	}
	_ = res.Status(code)
	_ = res.SendString("")
}
