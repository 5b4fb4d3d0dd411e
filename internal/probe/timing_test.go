package probe

import (
	"crypto/tls"
	"errors"
	"net/http/httptrace"
	"testing"
	"time"
)

// stepClock returns base + offset for each scripted call, in order.
type stepClock struct {
	base    time.Time
	offsets []time.Duration
	calls   int
}

func (s *stepClock) now() time.Time {
	if s.calls >= len(s.offsets) {
		return s.base.Add(s.offsets[len(s.offsets)-1])
	}
	t := s.base.Add(s.offsets[s.calls])
	s.calls++
	return t
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestPhaseClock_AllCheckpoints(t *testing.T) {
	clock := &stepClock{base: fixedNow, offsets: []time.Duration{0, ms(12), ms(30), ms(75), ms(140)}}
	pc := newPhaseClock(clock.now)
	trace := pc.Trace()

	pc.Start()
	trace.DNSDone(httptrace.DNSDoneInfo{})
	trace.ConnectDone("tcp", "192.0.2.10:443", nil)
	trace.TLSHandshakeDone(tls.ConnectionState{}, nil)
	trace.GotFirstResponseByte()

	got := pc.Timings()
	if got.DNS != 12 || got.TCP != 18 || got.TLS != 45 || got.TTFB != 65 {
		t.Errorf("Timings() = %+v, want dns=12 tcp=18 tls=45 ttfb=65", got)
	}
	if got.Total != 140 {
		t.Errorf("Total = %d, want 140", got.Total)
	}
	if ip := pc.RemoteIP(); ip != "192.0.2.10" {
		t.Errorf("RemoteIP() = %q, want %q", ip, "192.0.2.10")
	}
}

func TestPhaseClock_MissingCheckpointsFallBack(t *testing.T) {
	// IP literal over plaintext: no DNS, no TLS
	clock := &stepClock{base: fixedNow, offsets: []time.Duration{0, ms(20), ms(50)}}
	pc := newPhaseClock(clock.now)
	trace := pc.Trace()

	pc.Start()
	trace.ConnectDone("tcp", "[2001:db8::1]:80", nil)
	trace.GotFirstResponseByte()

	got := pc.Timings()
	if got.DNS != 0 || got.TLS != 0 {
		t.Errorf("skipped phases should be 0, got dns=%d tls=%d", got.DNS, got.TLS)
	}
	if got.TCP != 20 || got.TTFB != 30 || got.Total != 50 {
		t.Errorf("Timings() = %+v, want tcp=20 ttfb=30 total=50", got)
	}
	if ip := pc.RemoteIP(); ip != "2001:db8::1" {
		t.Errorf("RemoteIP() = %q, want %q", ip, "2001:db8::1")
	}
}

func TestPhaseClock_FirstOccurrenceWins(t *testing.T) {
	clock := &stepClock{base: fixedNow, offsets: []time.Duration{0, ms(5), ms(10), ms(500), ms(600)}}
	pc := newPhaseClock(clock.now)
	trace := pc.Trace()

	pc.Start()
	trace.DNSDone(httptrace.DNSDoneInfo{})
	trace.ConnectDone("tcp", "192.0.2.1:80", nil)
	trace.ConnectDone("tcp", "192.0.2.2:80", nil)
	trace.GotFirstResponseByte()

	got := pc.Timings()
	if got.TCP != 5 {
		t.Errorf("TCP = %d, want 5 (second connect must not overwrite)", got.TCP)
	}
	if ip := pc.RemoteIP(); ip != "192.0.2.1" {
		t.Errorf("RemoteIP() = %q, want first connected peer", ip)
	}
}

func TestPhaseClock_FailedConnectIgnored(t *testing.T) {
	clock := &stepClock{base: fixedNow, offsets: []time.Duration{0, ms(40), ms(90)}}
	pc := newPhaseClock(clock.now)
	trace := pc.Trace()

	pc.Start()
	trace.ConnectDone("tcp", "[2001:db8::1]:80", errors.New("network unreachable"))
	trace.ConnectDone("tcp", "192.0.2.1:80", nil)
	trace.GotFirstResponseByte()

	got := pc.Timings()
	if got.TCP != 40 {
		t.Errorf("TCP = %d, want 40", got.TCP)
	}
	if ip := pc.RemoteIP(); ip != "192.0.2.1" {
		t.Errorf("RemoteIP() = %q, want %q", ip, "192.0.2.1")
	}
}

func TestPhaseClock_OutOfOrderClamped(t *testing.T) {
	pc := newPhaseClock(nil)
	pc.start = fixedNow
	pc.dnsDone = fixedNow.Add(ms(30))
	pc.connectDone = fixedNow.Add(ms(10)) // earlier than DNS
	pc.firstByte = fixedNow.Add(ms(70))

	got := pc.Timings()
	if got.DNS < 0 || got.TCP < 0 || got.TLS < 0 || got.TTFB < 0 {
		t.Fatalf("negative phase in %+v", got)
	}
	if got.Total != got.DNS+got.TCP+got.TLS+got.TTFB {
		t.Errorf("Total = %d, want sum of phases %+v", got.Total, got)
	}
	if got.Total != 70 {
		t.Errorf("Total = %d, want 70", got.Total)
	}
}

func TestMillis_Rounds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{1499 * time.Microsecond, 1},
		{1500 * time.Microsecond, 2},
		{0, 0},
	}
	for _, tt := range tests {
		if got := millis(tt.in); got != tt.want {
			t.Errorf("millis(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
