package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// sweepInterval bounds how often idle buckets are looked for.
const sweepInterval = time.Minute

// RateLimitMiddleware limits requests per client IP with a token bucket each.
// Buckets are keyed by limit and IP, so one middleware can serve routes with
// different limits. A bucket idle for longer than its window is full again
// and gets dropped.
type RateLimitMiddleware struct {
	limiters  map[string]*bucket
	mu        sync.Mutex
	trusted   []netip.Prefix
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	idleTTL  time.Duration
}

// NewRateLimitMiddleware creates a new rate limiting middleware. Forwarding
// headers are only honoured when the peer address is in trustedProxies
// (IPs or CIDRs); invalid entries are logged and ignored.
func NewRateLimitMiddleware(trustedProxies ...string) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limiters: make(map[string]*bucket),
		now:      time.Now,
	}
	for _, p := range trustedProxies {
		prefix, err := parsePrefix(p)
		if err != nil {
			log.WithField("proxy", p).WithError(err).Warn("Ignoring invalid trusted proxy")
			continue
		}
		m.trusted = append(m.trusted, prefix)
	}
	return m
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// RateLimit allows a burst of maxRequests per client IP, refilled evenly
// over windowSeconds.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	window := time.Duration(windowSeconds) * time.Second
	every := rate.Every(window / time.Duration(maxRequests))
	prefix := fmt.Sprintf("%d/%d|", maxRequests, windowSeconds)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(prefix+m.clientIP(r), every, maxRequests, window) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(key string, every rate.Limit, burst int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		for k, b := range m.limiters {
			if now.Sub(b.lastSeen) > b.idleTTL {
				delete(m.limiters, k)
			}
		}
		m.lastSweep = now
	}

	b, ok := m.limiters[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(every, burst), idleTTL: window}
		m.limiters[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// size reports how many buckets are held.
func (m *RateLimitMiddleware) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// clientIP is the peer address, unless the peer is a trusted proxy: then it
// is the right-most X-Forwarded-For hop that is not itself trusted, or
// X-Real-IP.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !m.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !m.isTrusted(hop) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

func (m *RateLimitMiddleware) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
