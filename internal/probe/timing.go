package probe

import (
	"crypto/tls"
	"net"
	"net/http/httptrace"
	"sync"
	"time"

	"webInspector/internal/output"
)

// phaseClock records the checkpoints of one request. Every checkpoint is
// set at most once; the first occurrence wins. Trace callbacks may run on
// transport goroutines, so all access goes through mu.
type phaseClock struct {
	mu  sync.Mutex
	now func() time.Time

	start       time.Time
	dnsDone     time.Time
	connectDone time.Time
	tlsDone     time.Time
	firstByte   time.Time

	remoteIP string
}

func newPhaseClock(now func() time.Time) *phaseClock {
	if now == nil {
		now = time.Now
	}
	return &phaseClock{now: now}
}

// Start marks the beginning of the request
func (c *phaseClock) Start() {
	c.mark(&c.start)
}

func (c *phaseClock) mark(slot *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot.IsZero() {
		*slot = c.now()
	}
}

func (c *phaseClock) setRemote(addr net.Addr) {
	if addr == nil {
		return
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remoteIP == "" {
		c.remoteIP = host
	}
}

// Trace returns the hooks that feed the clock. Failed connect attempts
// (happy eyeballs races) are ignored; only the winning connection counts.
func (c *phaseClock) Trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) {
			c.mark(&c.dnsDone)
		},
		ConnectDone: func(network, addr string, err error) {
			if err != nil {
				return
			}
			c.mark(&c.connectDone)
			if host, _, splitErr := net.SplitHostPort(addr); splitErr == nil {
				c.mu.Lock()
				if c.remoteIP == "" {
					c.remoteIP = host
				}
				c.mu.Unlock()
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				c.mark(&c.tlsDone)
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn != nil {
				c.setRemote(info.Conn.RemoteAddr())
			}
		},
		GotFirstResponseByte: func() {
			c.mark(&c.firstByte)
		},
	}
}

// RemoteIP returns the peer address of the connection that served the request
func (c *phaseClock) RemoteIP() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteIP
}

// Timings converts the checkpoints into phase durations. A checkpoint that
// never fired takes the previous checkpoint's time, and a checkpoint that
// precedes its predecessor is clamped to it, so every phase is
// non-negative and the phases sum to Total exactly.
func (c *phaseClock) Timings() output.PhaseTimings {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.start
	dns := after(c.dnsDone, start)
	connect := after(c.connectDone, dns)
	handshake := after(c.tlsDone, connect)
	ttfb := after(c.firstByte, handshake)

	t := output.PhaseTimings{
		DNS:  millis(dns.Sub(start)),
		TCP:  millis(connect.Sub(dns)),
		TLS:  millis(handshake.Sub(connect)),
		TTFB: millis(ttfb.Sub(handshake)),
	}
	t.Total = t.DNS + t.TCP + t.TLS + t.TTFB
	return t
}

// after returns t, or prev when t is unset or earlier than prev
func after(t, prev time.Time) time.Time {
	if t.IsZero() || t.Before(prev) {
		return prev
	}
	return t
}

func millis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}
