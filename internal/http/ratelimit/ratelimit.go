// Package ratelimit throttles the anonymous surface of the dashboard.
// The login and invite-registration forms take credentials, so each
// client IP gets its own token bucket.
package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxClients caps the bucket map; beyond it the least recently seen
// client is evicted.
const maxClients = 10000

// Limiter hands out one token bucket per client IP. Buckets idle past
// the prune interval are dropped in the background.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	proxies []netip.Prefix
}

type client struct {
	bucket *rate.Limiter
	seen   time.Time
}

// New builds a limiter allowing limit requests per second with the
// given burst. trustedProxies lists the CIDRs (or single addresses)
// whose X-Forwarded-For headers are believed; requests from anywhere
// else are keyed on their remote address alone.
func New(limit rate.Limit, burst int, idle time.Duration, trustedProxies []string) *Limiter {
	l := &Limiter{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   burst,
		idle:    idle,
	}
	for _, raw := range trustedProxies {
		if p, err := netip.ParsePrefix(raw); err == nil {
			l.proxies = append(l.proxies, p)
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			l.proxies = append(l.proxies, netip.PrefixFrom(a, a.BitLen()))
		}
	}

	go l.prune()
	return l
}

// Middleware rejects a client's request with 429 once its bucket runs
// dry.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.bucketFor(l.clientIP(r)).Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) bucketFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= maxClients {
			l.evictOldestLocked()
		}
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.seen = time.Now()
	return c.bucket
}

func (l *Limiter) evictOldestLocked() {
	var oldest string
	var when time.Time
	for ip, c := range l.clients {
		if oldest == "" || c.seen.Before(when) {
			oldest, when = ip, c.seen
		}
	}
	if oldest != "" {
		delete(l.clients, oldest)
	}
}

func (l *Limiter) prune() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * l.idle)
		l.mu.Lock()
		for ip, c := range l.clients {
			if c.seen.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the address a request is keyed on. Forwarding
// headers only count when the direct peer is a trusted proxy; anyone
// can write X-Forwarded-For.
func (l *Limiter) clientIP(r *http.Request) string {
	remote := remoteAddr(r.RemoteAddr)

	if !l.trusted(remote) {
		return remote.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Leftmost entry is the originating client.
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if a, err := netip.ParseAddr(first); err == nil {
			return a.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if a, err := netip.ParseAddr(xri); err == nil {
			return a.String()
		}
	}
	return remote.String()
}

func (l *Limiter) trusted(a netip.Addr) bool {
	if len(l.proxies) == 0 {
		// No proxy config means the app is assumed to sit behind one.
		return true
	}
	for _, p := range l.proxies {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func remoteAddr(addr string) netip.Addr {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	a, _ := netip.ParseAddr(addr)
	return a.Unmap()
}
