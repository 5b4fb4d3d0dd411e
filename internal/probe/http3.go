package probe

import (
	"context"
	"crypto/tls"
	"net"
	"regexp"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"webInspector/internal/parser"
)

// altSvcH3PortRe captures the port of an h3 alternative on the same host,
// e.g. h3=":443"
var altSvcH3PortRe = regexp.MustCompile(`h3(?:-29)?=":(\d+)"`)

// QUICVerifier confirms an advertised HTTP/3 endpoint by completing a QUIC
// handshake with ALPN h3. No HTTP request is sent.
type QUICVerifier struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewQUICVerifier creates a verifier bounded by timeout
func NewQUICVerifier(timeout time.Duration, logger *zap.Logger) *QUICVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QUICVerifier{Timeout: timeout, Logger: logger}
}

// Verify dials the h3 alternative advertised in altSvc, falling back to the
// target's own port, and reports whether the handshake succeeded.
func (v *QUICVerifier) Verify(ctx context.Context, target parser.Target, altSvc string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	addr := net.JoinHostPort(target.Host, h3Port(altSvc, target.Port))
	conn, err := quic.DialAddr(ctx, addr, &tls.Config{
		ServerName:         target.Host,
		NextProtos:         []string{"h3"},
		InsecureSkipVerify: true,
	}, &quic.Config{})
	if err != nil {
		v.Logger.Debug("QUIC handshake failed", zap.String("address", addr), zap.Error(err))
		return false
	}
	defer conn.CloseWithError(0, "")

	v.Logger.Debug("QUIC handshake complete",
		zap.String("address", addr),
		zap.String("alpn", conn.ConnectionState().TLS.NegotiatedProtocol),
	)
	return true
}

// h3Port returns the port of the first same-host h3 alternative, or fallback
func h3Port(altSvc, fallback string) string {
	if m := altSvcH3PortRe.FindStringSubmatch(altSvc); m != nil {
		return m[1]
	}
	return fallback
}
