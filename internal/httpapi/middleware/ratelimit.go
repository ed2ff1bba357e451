package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanos
}

// limiter keeps one token bucket per client key.
type limiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	m     *xsync.Map[string, *visitor]
	now   func() time.Time
}

func newLimiter(rps float64, burst int, ttl time.Duration) *limiter {
	return &limiter{
		limit: rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
		m:     xsync.NewMap[string, *visitor](),
		now:   time.Now,
	}
}

func (l *limiter) allow(key string) bool {
	now := l.now()
	v, _ := l.m.Compute(key, func(old *visitor, loaded bool) (*visitor, xsync.ComputeOp) {
		if loaded {
			return old, xsync.UpdateOp
		}
		return &visitor{lim: rate.NewLimiter(l.limit, l.burst)}, xsync.UpdateOp
	})
	v.seen.Store(now.UnixNano())
	return v.lim.AllowN(now, 1)
}

// sweep drops clients idle for longer than ttl.
func (l *limiter) sweep() {
	cutoff := l.now().Add(-l.ttl).UnixNano()
	l.m.Range(func(k string, v *visitor) bool {
		if v.seen.Load() < cutoff {
			l.m.Delete(k)
		}
		return true
	})
}

// RateLimit returns a middleware that rate-limits by client IP. The client
// is the TCP peer unless that peer is one of trusted, in which case the
// nearest untrusted X-Forwarded-For hop is used.
// Example: RateLimit(120, 30, nil) => 120 req/min with burst 30
func RateLimit(reqPerMin int, burst int, trusted []netip.Prefix) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		// disabled
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	l := newLimiter(float64(reqPerMin)/60.0, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		var calls atomic.Int64
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r, trusted)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			if calls.Add(1)%1024 == 0 {
				l.sweep()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParseTrustedProxies accepts CIDRs or bare IPs.
func ParseTrustedProxies(vals []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if p, err := netip.ParsePrefix(v); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: not an IP or CIDR", v)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !isTrusted(peer, trusted) {
		return peer
	}
	// behind a trusted proxy: walk X-Forwarded-For right to left
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
		peer = hop
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
