package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webInspector/internal/cdn"
	"webInspector/internal/config"
	"webInspector/internal/geo"
	"webInspector/internal/hash"
	"webInspector/internal/output"
	"webInspector/internal/parser"
	"webInspector/internal/tech"
)

// TLSAnalyzer performs the TLS phase of a scan
type TLSAnalyzer interface {
	Analyze(ctx context.Context, target parser.Target) (*output.TLSFindings, error)
}

// HTTPClassifier performs the HTTP phase of a scan
type HTTPClassifier interface {
	Classify(ctx context.Context, target parser.Target, alpn string) (*HTTPFindings, error)
}

// CNAMEResolver looks up a host's canonical name; "" means none
type CNAMEResolver interface {
	Resolve(ctx context.Context, host string) string
}

// H3Verifier confirms an advertised HTTP/3 endpoint
type H3Verifier interface {
	Verify(ctx context.Context, target parser.Target, altSvc string) bool
}

// Inspector runs one inspection per call and assembles the Report. Nil
// optional collaborators (CNAME, Geo, H3, Tech) switch their step off.
type Inspector struct {
	TLS   TLSAnalyzer
	HTTP  HTTPClassifier
	CNAME CNAMEResolver
	Geo   geo.Locator
	H3    H3Verifier
	Tech  tech.Fingerprinter

	Logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewInspector wires the network collaborators from cfg. locator may be
// nil to skip geolocation.
func NewInspector(cfg *config.Config, locator geo.Locator) *Inspector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	insp := &Inspector{
		TLS:    NewHandshakeAnalyzer(cfg.TLSTimeout, logger),
		HTTP:   NewClassifier(cfg.HTTPTimeout, cfg.MaxBodySize, cfg.UserAgent, logger),
		CNAME:  NewDNSResolver(cfg.CNAMETimeout, logger),
		Logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if cfg.GeoLookup && locator != nil {
		insp.Geo = locator
	}
	if cfg.VerifyHTTP3 {
		insp.H3 = NewQUICVerifier(cfg.H3Timeout, logger)
	}
	if cfg.TechDetect {
		insp.Tech = tech.NewDetector()
	}
	return insp
}

func (i *Inspector) clock() time.Time {
	if i.now == nil {
		return time.Now()
	}
	return i.now()
}

func (i *Inspector) scanID() string {
	if i.newID == nil {
		return uuid.NewString()
	}
	return i.newID()
}

func (i *Inspector) logger() *zap.Logger {
	if i.Logger == nil {
		return zap.NewNop()
	}
	return i.Logger
}

// Inspect runs the full inspection of rawURL. It never fails: every
// error ends up in Report.Error, with all support flags false.
func (i *Inspector) Inspect(ctx context.Context, rawURL string) output.Report {
	id := i.scanID()
	scannedAt := i.clock().UTC().Format(time.RFC3339)
	log := i.logger().With(zap.String("scan_id", id), zap.String("url", rawURL))

	target, err := parser.ParseTarget(rawURL)
	if err != nil {
		msg := err.Error()
		if !errors.Is(err, parser.ErrMissingScheme) {
			msg = fmt.Sprintf("invalid URL: %v", err)
		}
		log.Debug("rejected input", zap.Error(err))
		return output.ErrorReport(id, rawURL, scannedAt, msg)
	}

	var cname string
	if i.CNAME != nil {
		cname = i.CNAME.Resolve(ctx, target.Host)
	}

	fail := func(phase string, err error) output.Report {
		log.Info("inspection failed", zap.String("phase", phase), zap.Error(err))
		report := output.ErrorReport(id, rawURL, scannedAt, err.Error())
		report.CNAME = cname
		return report
	}

	var tlsFindings *output.TLSFindings
	if target.Secure() {
		tlsFindings, err = i.TLS.Analyze(ctx, target)
		if err != nil {
			return fail("tls", err)
		}
	}

	alpn := ""
	if tlsFindings != nil {
		alpn = tlsFindings.ALPN
	}

	httpFindings, err := i.HTTP.Classify(ctx, target, alpn)
	if err != nil {
		return fail("http", err)
	}

	report := output.Report{
		ScanID:         id,
		URL:            rawURL,
		ScannedAt:      scannedAt,
		CNAME:          cname,
		SupportsHTTP11: httpFindings.SupportsHTTP11,
		SupportsHTTP2:  httpFindings.SupportsHTTP2,
		SupportsHTTP3:  httpFindings.SupportsHTTP3,
		SupportsHSTS:   httpFindings.SupportsHSTS,
		HSTSHeader:     httpFindings.HSTSHeader,
		AltSvc:         httpFindings.AltSvc,
		StatusCode:     httpFindings.StatusCode,
		Protocol:       httpFindings.Protocol,
		Headers:        FlattenHeaders(httpFindings.Headers),
		Partial:        httpFindings.Partial,
	}

	timings := httpFindings.Timings
	report.Timings = &timings

	if tlsFindings != nil {
		report.TLSVersion = tlsFindings.Version
		report.Cipher = tlsFindings.Cipher
		report.ALPN = tlsFindings.ALPN
		report.Cert = tlsFindings.Cert
	} else {
		report.TLSVersion = output.NotApplicable
		report.Cipher = output.NotApplicable
		report.SupportsHTTP2 = false
		report.Timings.TLS = 0
		report.Timings.Total = report.Timings.DNS + report.Timings.TCP + report.Timings.TTFB
	}

	if report.Partial {
		report.Notice = output.PartialContentNotice
	}

	meta := parser.ExtractMetadata(httpFindings.Body, target.URL)
	report.Title = meta.Title
	report.Description = meta.Description
	report.Icon = meta.Icon

	report.IP = httpFindings.RemoteIP
	if report.IP == "" && tlsFindings != nil {
		report.IP = tlsFindings.IP
	}
	if report.IP != "" {
		if i.Geo != nil {
			report.IPInfo = i.Geo.Locate(ctx, report.IP)
		} else {
			report.IPInfo = &output.IPInfo{IP: report.IP}
		}
	}

	i.enrich(ctx, log, target, httpFindings, &report)

	log.Info("inspection complete",
		zap.Int("status_code", report.StatusCode),
		zap.String("protocol", report.Protocol),
		zap.Bool("partial", report.Partial),
		zap.Int64("total_ms", report.Timings.Total),
	)
	return report
}

// enrich adds the response-derived extras. None of them can fail the scan.
func (i *Inspector) enrich(ctx context.Context, log *zap.Logger, target parser.Target, findings *HTTPFindings, report *output.Report) {
	headers := findings.Headers
	if headers == nil {
		headers = http.Header{}
	}

	report.Hash = hash.Of(findings.Body, headers)

	if name := cdn.Detect(headers); name != "" {
		report.CDN = true
		report.CDNName = name
	}

	report.RelatedDomains = RelatedDomains(report.Cert, headers, target.Host)

	if i.Tech != nil {
		techs, err := i.Tech.Detect(headers, findings.Body)
		if err != nil {
			log.Debug("technology detection failed", zap.Error(err))
		} else {
			report.Technologies = techs
		}
	}

	if i.H3 != nil && report.SupportsHTTP3 {
		verified := i.H3.Verify(ctx, target, findings.AltSvc)
		report.HTTP3Verified = &verified
	}
}
