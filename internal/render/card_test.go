package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"webInspector/internal/output"
)

func init() {
	color.NoColor = true
}

func TestCard_Success(t *testing.T) {
	verified := true
	report := output.Report{
		ScanID:         "scan-1",
		URL:            "https://example.com",
		IP:             "192.0.2.1",
		CNAME:          "example.cdn.net",
		SupportsHTTP11: true,
		SupportsHTTP2:  true,
		SupportsHTTP3:  true,
		HTTP3Verified:  &verified,
		TLSVersion:     "TLSv1.3",
		Cipher:         "TLS_AES_128_GCM_SHA256 (TLSv1.3)",
		Cert: &output.CertificateSnapshot{
			Subject:       "example.com",
			Issuer:        "Example CA",
			ValidFrom:     "May 31 12:00:00 2025 GMT",
			ValidTo:       "Aug 30 12:00:00 2025 GMT",
			DaysRemaining: 10,
		},
		StatusCode:   200,
		Protocol:     "HTTP/2.0",
		Timings:      &output.PhaseTimings{DNS: 1, TCP: 2, TLS: 3, TTFB: 4, Total: 10},
		Title:        "Example",
		IPInfo:       &output.IPInfo{IP: "192.0.2.1", City: "Vienna", Country: "Austria", ISP: "ExampleNet"},
		CDN:          true,
		CDNName:      "Cloudflare",
		Technologies: []string{"Nginx", "React"},
		Partial:      true,
		Notice:       output.PartialContentNotice,
	}

	var buf bytes.Buffer
	if err := Card(&buf, report); err != nil {
		t.Fatalf("Card() error = %v", err)
	}
	got := buf.String()

	for _, want := range []string{
		"https://example.com (scan-1)",
		"200 HTTP/2.0",
		"192.0.2.1 Vienna, Austria (ExampleNet)",
		"example.cdn.net",
		"+HTTP/1.1  +HTTP/2  +HTTP/3  -HSTS  +QUIC",
		"TLSv1.3, TLS_AES_128_GCM_SHA256 (TLSv1.3)",
		"(10 days left)",
		"dns 1ms  tcp 2ms  tls 3ms  ttfb 4ms  total 10ms",
		"Cloudflare",
		"Nginx, React",
		"Partial content (size limit)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("card missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Description") {
		t.Errorf("empty description should be omitted:\n%s", got)
	}
}

func TestCard_Plaintext(t *testing.T) {
	report := output.Report{
		URL:            "http://example.com",
		SupportsHTTP11: true,
		TLSVersion:     output.NotApplicable,
		Cipher:         output.NotApplicable,
		StatusCode:     404,
	}

	var buf bytes.Buffer
	if err := Card(&buf, report); err != nil {
		t.Fatalf("Card() error = %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "N/A") {
		t.Errorf("plaintext card should show N/A TLS:\n%s", got)
	}
	if strings.Contains(got, "Subject") {
		t.Errorf("plaintext card should not show a certificate:\n%s", got)
	}
}

func TestCard_Error(t *testing.T) {
	report := output.ErrorReport("scan-2", "https://down.example", "2025-06-01T12:00:00Z", "TLS connection timed out")

	var buf bytes.Buffer
	if err := Card(&buf, report); err != nil {
		t.Fatalf("Card() error = %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "TLS connection timed out") {
		t.Errorf("error card missing message:\n%s", got)
	}
	if strings.Contains(got, "Protocols") {
		t.Errorf("error card should not list protocols:\n%s", got)
	}
}

func TestFormatDaysRemaining(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-3, "expired 3 days ago"},
		{0, "0 days left"},
		{29, "29 days left"},
		{90, "90 days left"},
	}
	for _, tt := range tests {
		if got := formatDaysRemaining(tt.days); got != tt.want {
			t.Errorf("formatDaysRemaining(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
