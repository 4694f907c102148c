package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CounterStore is a fixed-window hit counter. The Redis client implements it
// for multi-instance deployments; MemoryStore is the single-process default.
type CounterStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

type RateLimiter struct {
	store  CounterStore
	window time.Duration
	limit  int
}

func NewRateLimiter(store CounterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Middleware enforces the limit for a derived key. A store failure lets the
// request through: losing throttling beats failing logins.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = clientIP(c)
		}

		count, err := rl.store.Hit(c.Request.Context(), "ratelimit:"+key, rl.window)

		if err != nil {
			c.Next()
			return
		}

		if count > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available

func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// Normalize ipv6 zone in a defensive manner

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryStore is the in-process CounterStore.

type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*windowCount
}

type windowCount struct {
	count     int
	windowEnd time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*windowCount)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]

	if !ok || now.After(w.windowEnd) {
		s.windows[key] = &windowCount{
			count:     1,
			windowEnd: now.Add(window),
		}

		return 1, nil
	}

	w.count++

	return w.count, nil
}
