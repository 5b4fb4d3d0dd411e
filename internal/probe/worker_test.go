package probe

import (
	"context"
	"testing"
)

func TestInspectAll_PreservesOrder(t *testing.T) {
	insp, f := newTestInspector(t, okTLS(), okHTTP(true))

	urls := []string{"https://a.example", "example.org", "https://b.example"}
	var got []string
	for report := range insp.InspectAll(context.Background(), urls) {
		got = append(got, report.URL)
	}

	if len(got) != len(urls) {
		t.Fatalf("got %d reports, want %d", len(got), len(urls))
	}
	for i := range urls {
		if got[i] != urls[i] {
			t.Errorf("report %d URL = %q, want %q", i, got[i], urls[i])
		}
	}
	// the scheme-less input never reaches the network
	if f.tls.calls != 2 || f.http.calls != 2 {
		t.Errorf("tls calls = %d, http calls = %d, want 2 each", f.tls.calls, f.http.calls)
	}
}

func TestInspectAll_Cancelled(t *testing.T) {
	insp, f := newTestInspector(t, okTLS(), okHTTP(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range insp.InspectAll(ctx, []string{"https://a.example", "https://b.example"}) {
		count++
	}
	if count != 0 {
		t.Errorf("got %d reports after cancellation, want 0", count)
	}
	if f.networkCalls() != 0 {
		t.Errorf("network calls = %d, want 0", f.networkCalls())
	}
}
