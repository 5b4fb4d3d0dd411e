// Package ratelimit admits at most one scan per client per window.
package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultWindow is the minimum interval between two scans of one client
const DefaultWindow = 10 * time.Second

type clientLimiter struct {
	limiter   *rate.Limiter
	lastAdmit time.Time
}

// Gate is a keyed admission gate. A key is admitted once per window; a
// rejected attempt does not push the window back. Keys idle for a full
// window are evicted by a background sweeper until Close is called.
type Gate struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Gate
type Option func(*Gate)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a gate with the given window and starts its sweeper.
// The sweeper runs once per window.
func NewGate(window time.Duration, opts ...Option) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	g := &Gate{
		window:   window,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	go g.cleanupLoop()
	return g
}

// Window returns the admission window
func (g *Gate) Window() time.Duration {
	return g.window
}

// Admit reports whether key may scan now. When it may not, retryAfter is
// the time left until it may.
func (g *Gate) Admit(key string) (ok bool, retryAfter time.Duration) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	cl, exists := g.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(g.window), 1)}
		g.limiters[key] = cl
	}

	r := cl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, g.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		// hand the token back so the rejected attempt leaves the window untouched
		r.CancelAt(now)
		return false, delay
	}

	cl.lastAdmit = now
	return true, 0
}

// Sweep evicts keys whose last admission is at least a window old. Such a
// key would be admitted anyway, so dropping it changes no outcome.
func (g *Gate) Sweep() int {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	evicted := 0
	for key, cl := range g.limiters {
		if now.Sub(cl.lastAdmit) >= g.window {
			delete(g.limiters, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked keys
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.limiters)
}

// cleanupLoop sweeps idle keys once per window until Close
func (g *Gate) cleanupLoop() {
	defer close(g.done)

	ticker := time.NewTicker(g.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Sweep()
		case <-g.stop:
			return
		}
	}
}

// Close stops the sweeper and waits for it to exit
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		close(g.stop)
	})
	<-g.done
}

// WaitSeconds converts a retry delay into whole seconds, rounding up after
// trimming sub-millisecond noise.
func WaitSeconds(d time.Duration) int {
	d = d.Round(time.Millisecond)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// RejectionMessage is the report error for a rate-limited scan
func RejectionMessage(retryAfter time.Duration) string {
	return fmt.Sprintf("Too many requests, please wait %d seconds before trying again", WaitSeconds(retryAfter))
}

// ClientKey identifies the client behind r: the first X-Forwarded-For
// entry, else X-Real-IP, else the remote address without its port.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
