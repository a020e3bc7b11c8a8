// internal/app/system/ratelimit/ratelimit.go
//
// Package ratelimit throttles console sign-in attempts. A gym front desk
// usually sits behind one NAT address, so the per-IP allowance is generous;
// the per-email allowance is the one that actually stops someone grinding
// on an owner account.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a sliding-log limiter: it keeps the timestamps of recent
// attempts per key and allows a new one while fewer than limit attempts
// fall inside the window. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	log    map[string][]time.Time
	limit  int
	window time.Duration

	sweepEvery int // lazily sweep stale keys every N Allow calls
	calls      int
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		log:        make(map[string][]time.Time),
		limit:      limit,
		window:     window,
		sweepEvery: 256,
	}
}

// Allow records an attempt for key and reports whether it is within the
// allowance.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%l.sweepEvery == 0 {
		l.sweepLocked(now)
	}

	recent := prune(l.log[key], now.Add(-l.window))
	if len(recent) >= l.limit {
		l.log[key] = recent
		return false
	}
	l.log[key] = append(recent, now)
	return true
}

// Reset forgets all attempts for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.log, key)
	l.mu.Unlock()
}

func (l *Limiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, times := range l.log {
		if recent := prune(times, cutoff); len(recent) == 0 {
			delete(l.log, key)
		} else {
			l.log[key] = recent
		}
	}
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// order, so the survivors are a suffix.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// ClientIP resolves the originating address, honoring the proxy headers the
// deployment's reverse proxy sets.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter guards the console sign-in form with two allowances: a loose
// per-IP one (whole front desk shares an address) and a tight per-email one.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

const (
	ipAttempts   = 20
	ipWindow     = time.Minute
	emailWindow  = 5 * time.Minute
	emailAttemps = 5
)

func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipAttempts, ipWindow),
		byEmail: New(emailAttemps, emailWindow),
	}
}

// Check records a sign-in attempt and reports whether it may proceed. The
// second value is the message shown to the user when blocked.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail forgets the failed attempts for email after a successful
// sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
