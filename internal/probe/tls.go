package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"webInspector/internal/output"
	"webInspector/internal/parser"
)

// offeredALPN is the protocol list offered during the handshake. The
// negotiated value decides HTTP/2 support.
var offeredALPN = []string{"h2", "http/1.1"}

// HandshakeAnalyzer performs a standalone TLS handshake against a target
// and reports what was negotiated. Certificates are never verified: an
// expired or self-signed certificate is a finding, not a failure.
type HandshakeAnalyzer struct {
	Timeout time.Duration
	Logger  *zap.Logger

	// now anchors certificate expiry math; replaced in tests
	now func() time.Time
}

// NewHandshakeAnalyzer creates an analyzer bounded by timeout
func NewHandshakeAnalyzer(timeout time.Duration, logger *zap.Logger) *HandshakeAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandshakeAnalyzer{Timeout: timeout, Logger: logger, now: time.Now}
}

// Analyze dials target.Address() and completes a handshake with SNI set to
// the target host. The connection is closed before returning.
func (a *HandshakeAnalyzer) Analyze(ctx context.Context, target parser.Target) (*output.TLSFindings, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var dialer net.Dialer
	rawConn, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, a.wrap(target, err)
	}

	conn := tls.Client(rawConn, &tls.Config{
		ServerName:         target.Host,
		NextProtos:         offeredALPN,
		InsecureSkipVerify: true,
	})
	defer conn.Close()

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, a.wrap(target, err)
	}

	state := conn.ConnectionState()
	findings := &output.TLSFindings{
		Version: TLSVersionName(state.Version),
		Cipher:  fmt.Sprintf("%s (%s)", tls.CipherSuiteName(state.CipherSuite), TLSVersionName(state.Version)),
		ALPN:    state.NegotiatedProtocol,
		Cert:    ExtractCertificate(&state, a.now()),
	}
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		findings.IP = addr.IP.String()
	}

	a.Logger.Debug("TLS handshake complete",
		zap.String("host", target.Host),
		zap.String("version", findings.Version),
		zap.String("alpn", findings.ALPN),
		zap.String("ip", findings.IP),
	)
	return findings, nil
}

func (a *HandshakeAnalyzer) wrap(target parser.Target, err error) error {
	a.Logger.Debug("TLS handshake failed", zap.String("address", target.Address()), zap.Error(err))
	if isTimeout(err) {
		return ErrTLSTimeout
	}
	return &TLSError{Err: err}
}

// TLSVersionName converts a TLS version to its conventional name, e.g. "TLSv1.3"
func TLSVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS13:
		return "TLSv1.3"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS10:
		return "TLSv1"
	default:
		return fmt.Sprintf("0x%04x", version)
	}
}
