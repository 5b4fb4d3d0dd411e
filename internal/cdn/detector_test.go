package cdn

import (
	"net/http"
	"testing"
)

func TestDetect_Providers(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    string
	}{
		{"Cf-Ray header", http.Header{"Cf-Ray": {"abc123"}}, "Cloudflare"},
		{"Server cloudflare mixed case", http.Header{"Server": {"Cloudflare"}}, "Cloudflare"},
		{"X-Amz-Cf-Id", http.Header{"X-Amz-Cf-Id": {"abc"}}, "CloudFront"},
		{"Via cloudfront", http.Header{"Via": {"1.1 abc123.cloudfront.net (CloudFront)"}}, "CloudFront"},
		{"Fastly", http.Header{"X-Fastly-Request-Id": {"abc"}}, "Fastly"},
		{"Akamai server", http.Header{"Server": {"AkamaiGHost"}}, "Akamai"},
		{"Azure", http.Header{"X-Azure-Ref": {"0abc"}}, "Azure Front Door"},
		{"Google", http.Header{"Via": {"1.1 google"}}, "Google Cloud CDN"},
		{"Vercel", http.Header{"X-Vercel-Id": {"fra1::abc"}}, "Vercel"},
		{"Netlify", http.Header{"X-Nf-Request-Id": {"01H"}}, "Netlify"},
		{"Bunny", http.Header{"Server": {"BunnyCDN-DE1-1054"}}, "BunnyCDN"},
		{"KeyCDN", http.Header{"Server": {"keycdn-engine"}}, "KeyCDN"},
		{"Varnish via", http.Header{"Via": {"1.1 varnish (Varnish/6.0)"}}, "Varnish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.headers); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_GenericXCDN(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-CDN", "CustomCDN")
	if got := Detect(headers); got != "CustomCDN" {
		t.Errorf("Detect() = %q, want CustomCDN", got)
	}
}

func TestDetect_NoCDN(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
	}{
		{"plain origin", http.Header{"Server": {"Apache/2.4"}, "Content-Type": {"text/html"}}},
		{"empty", http.Header{}},
		{"empty Cf-Ray value", http.Header{"Cf-Ray": {""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.headers); got != "" {
				t.Errorf("Detect() = %q, want empty", got)
			}
		})
	}
}
