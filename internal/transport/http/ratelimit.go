package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

// RateLimitConfig defines a per-client token bucket. This edge limiter sits
// in front of the persisted per-account OTP quota; it protects the login and
// reset endpoints from brute force regardless of which accounts are hit.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// StrictLimit suits credential endpoints: 5 requests per minute per client.
var StrictLimit = RateLimitConfig{
	RequestsPerWindow: 5,
	Window:            time.Minute,
	Burst:             5,
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns an echo middleware that applies cfg per client IP.
// Stale limiters are evicted opportunistically so the map cannot grow
// without bound.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu          sync.Mutex
		clients     = make(map[string]*clientLimiter)
		lastCleanup = time.Now()
	)
	limit := rate.Every(cfg.Window / time.Duration(cfg.RequestsPerWindow))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := clientIP(c.Request())

			mu.Lock()
			if time.Since(lastCleanup) > 10*time.Minute {
				for k, cl := range clients {
					if time.Since(cl.lastSeen) > 10*time.Minute {
						delete(clients, k)
					}
				}
				lastCleanup = time.Now()
			}
			cl, ok := clients[key]
			if !ok {
				cl = &clientLimiter{limiter: rate.NewLimiter(limit, cfg.Burst)}
				clients[key] = cl
			}
			cl.lastSeen = time.Now()
			allowed := cl.limiter.Allow()
			mu.Unlock()

			if !allowed {
				return c.JSON(http.StatusTooManyRequests, util.Error("too many requests"))
			}
			return next(c)
		}
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
