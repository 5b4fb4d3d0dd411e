package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.uber.org/zap"

	"webInspector/internal/output"
	"webInspector/internal/parser"
)

// HTTPFindings is the outcome of the timed GET against a target
type HTTPFindings struct {
	StatusCode int
	Protocol   string
	Headers    http.Header
	Body       []byte // at most MaxBodySize bytes
	Partial    bool   // the body was cut at MaxBodySize
	RemoteIP   string
	Timings    output.PhaseTimings

	SupportsHTTP11 bool
	SupportsHTTP2  bool
	SupportsHTTP3  bool
	SupportsHSTS   bool
	HSTSHeader     string
	AltSvc         string
}

// Classifier issues one GET per scan, times its phases and classifies
// protocol support from the response.
type Classifier struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
	Logger      *zap.Logger

	now func() time.Time
}

// NewClassifier creates a classifier with the given limits
func NewClassifier(timeout time.Duration, maxBodySize int64, userAgent string, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		Timeout:     timeout,
		MaxBodySize: maxBodySize,
		UserAgent:   userAgent,
		Logger:      logger,
		now:         time.Now,
	}
}

// Classify requests target and reads at most MaxBodySize bytes of the body.
// alpn is the protocol negotiated by the TLS analyzer; "h2" on a secure
// target means HTTP/2 support. The deadline covers the request and the body.
func (c *Classifier) Classify(ctx context.Context, target parser.Target, alpn string) (*HTTPFindings, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	client, transport, err := newScanClient(c.Timeout)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer transport.CloseIdleConnections()

	clock := newPhaseClock(c.now)
	ctx = httptrace.WithClientTrace(ctx, clock.Trace())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.RequestURL(), nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	clock.Start()
	resp, err := client.Do(req)
	if err != nil {
		return nil, c.wrap(target, err)
	}
	defer resp.Body.Close()

	body, partial, err := readCapped(resp.Body, c.MaxBodySize)
	if err != nil {
		return nil, c.wrap(target, err)
	}
	if partial {
		c.Logger.Debug("response body truncated",
			zap.String("url", target.Raw),
			zap.Int64("max_size", c.MaxBodySize),
		)
	}

	altSvc := strings.Join(resp.Header.Values("Alt-Svc"), ", ")
	hsts := resp.Header.Get("Strict-Transport-Security")

	findings := &HTTPFindings{
		StatusCode:     resp.StatusCode,
		Protocol:       resp.Proto,
		Headers:        resp.Header,
		Body:           body,
		Partial:        partial,
		RemoteIP:       clock.RemoteIP(),
		Timings:        clock.Timings(),
		SupportsHTTP11: resp.ProtoAtLeast(1, 1),
		SupportsHTTP2:  target.Secure() && alpn == "h2",
		SupportsHTTP3:  AdvertisesHTTP3(altSvc),
		SupportsHSTS:   hsts != "",
		HSTSHeader:     hsts,
		AltSvc:         altSvc,
	}

	c.Logger.Debug("HTTP request complete",
		zap.String("url", target.Raw),
		zap.Int("status_code", findings.StatusCode),
		zap.String("protocol", findings.Protocol),
		zap.Int("body_bytes", len(body)),
		zap.Int64("total_ms", findings.Timings.Total),
	)
	return findings, nil
}

func (c *Classifier) wrap(target parser.Target, err error) error {
	c.Logger.Debug("HTTP request failed", zap.String("url", target.Raw), zap.Error(err))
	if isTimeout(err) {
		return ErrHTTPTimeout
	}
	return &TransportError{Err: err}
}

// readCapped reads up to limit bytes. Reaching the limit stops the
// transfer and yields partial == true; a read error once the limit was
// reached is still a partial success.
func readCapped(r io.Reader, limit int64) (body []byte, partial bool, err error) {
	body, err = io.ReadAll(io.LimitReader(r, limit+1))
	if int64(len(body)) >= limit && (err != nil || int64(len(body)) > limit) {
		return body[:limit], true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

// AdvertisesHTTP3 reports whether an Alt-Svc value offers h3 or draft-29
func AdvertisesHTTP3(altSvc string) bool {
	return strings.Contains(altSvc, "h3=") || strings.Contains(altSvc, "h3-29=")
}

// FlattenHeaders lower-cases header names and joins repeated values with ", "
func FlattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	flat := make(map[string]string, len(headers))
	for k, v := range headers {
		flat[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return flat
}
