package probe

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newScanClient builds an HTTP client for exactly one scan. Nothing is
// pooled between scans: keep-alives are off and the caller closes idle
// connections when the scan ends. Redirects are reported, not followed.
func newScanClient(dialTimeout time.Duration) (*http.Client, *http.Transport, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
		DisableKeepAlives:   true,
		MaxIdleConns:        1,
		TLSHandshakeTimeout: dialTimeout,
		TLSClientConfig: &tls.Config{
			// certificate problems are reported by the TLS analyzer, not treated as failures
			InsecureSkipVerify: true,
		},
	}

	// A custom TLS config disables the transport's automatic h2 upgrade;
	// configure it explicitly so HTTP/2 servers are spoken to in HTTP/2.
	if _, err := http2.ConfigureTransports(transport); err != nil {
		return nil, nil, err
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return client, transport, nil
}
