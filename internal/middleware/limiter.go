package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"fooddelivery-client/internal/auth"
	"fooddelivery-client/internal/envelope"

	"golang.org/x/time/rate"
)

// Checkout is limited harder than browsing and cart edits.
const (
	limitStrict = rate.Limit(2)
	burstStrict = 5
)

// DefaultVisitorTTL is how long an idle caller's bucket is kept.
const DefaultVisitorTTL = 3 * time.Minute

const msgRateLimited = "Too many requests, please slow down"

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-caller token bucket. Callers are keyed by derived user
// id when logged in, by remote IP otherwise.
type Limiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Middleware rejects callers that ran out of tokens with a 429 envelope.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.resolveTier(r)
		key := callerKey(r) + ":" + tier

		if !l.visitor(key, limit, burst).Allow() {
			w.Header().Set("Retry-After", "1")
			envelope.WriteError(w, envelope.CodeRateLimit, msgRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// visitor retrieves or creates the limiter for key.
func (l *Limiter) visitor(key string, limit rate.Limit, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Cleanup drops visitors idle for longer than maxIdle and reports how many.
func (l *Limiter) Cleanup(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > maxIdle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup(maxIdle)
		}
	}
}

// checkoutPath is matched with trailing slashes trimmed; the router serves
// both forms.
const checkoutPath = "/v1/orders"

func (l *Limiter) resolveTier(r *http.Request) (rate.Limit, int, string) {
	if r.Method == http.MethodPost && strings.TrimRight(r.URL.Path, "/") == checkoutPath {
		return limitStrict, burstStrict, "strict"
	}
	return l.limit, l.burst, "general"
}

func callerKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		if userID := id.UserID(); userID != auth.FallbackUserID {
			return "user:" + userID
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
