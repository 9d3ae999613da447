package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tayylorngo/t-testing-sub000/pkg/appenv"
	"github.com/tayylorngo/t-testing-sub000/types"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per caller key. A background
// janitor evicts buckets that have been idle for limiterIdleTTL so
// the map does not grow unbounded.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	s := &limiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go s.janitor()
	return s
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (s *limiterStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleTTL)
		s.mu.Lock()
		for key, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}

func rateLimitEnabled() bool {
	if appenv.IsTest() {
		return false
	}
	v := os.Getenv("RATE_LIMIT_ENABLED")
	return v == "" || strings.EqualFold(v, "true")
}

func envFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func envIntVal(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func whitelistedIPs() map[string]struct{} {
	ips := make(map[string]struct{})
	for _, ip := range strings.Split(os.Getenv("RATE_LIMIT_WHITELIST"), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			ips[ip] = struct{}{}
		}
	}
	return ips
}

// callerKey prefers the authenticated user id so a user behind a shared
// NAT is not throttled by neighbours; unauthenticated requests fall back
// to the client IP.
func callerKey(c *gin.Context) string {
	if userID, ok := c.Get("userId"); ok {
		return fmt.Sprintf("user:%v", userID)
	}
	return "ip:" + c.ClientIP()
}

func limitWith(store *limiterStore, whitelist map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := whitelist[c.ClientIP()]; ok {
			c.Next()
			return
		}
		if !store.get(callerKey(c)).Allow() {
			c.JSON(http.StatusTooManyRequests, types.NewErrorResponse(
				types.ErrorCodeRateLimited, "too many requests, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware throttles general API traffic per user (or per IP
// when unauthenticated). Tunable via RATE_LIMIT_RPS and RATE_LIMIT_BURST;
// disabled entirely in the test environment or when RATE_LIMIT_ENABLED=false.
func RateLimitMiddleware() gin.HandlerFunc {
	if !rateLimitEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(
		envFloat("RATE_LIMIT_RPS", 20),
		envIntVal("RATE_LIMIT_BURST", 40),
	)
	return limitWith(store, whitelistedIPs())
}

// RateLimitAuthMiddleware is a much stricter limiter for credential
// endpoints (register, login) to slow down brute forcing.
func RateLimitAuthMiddleware() gin.HandlerFunc {
	if !rateLimitEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(
		envFloat("RATE_LIMIT_AUTH_RPS", 1),
		envIntVal("RATE_LIMIT_AUTH_BURST", 5),
	)
	return limitWith(store, whitelistedIPs())
}
