package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DNSResolver looks up the canonical name of a host. Lookups are best
// effort: failures are logged and reported as "no CNAME".
type DNSResolver struct {
	Resolver *net.Resolver
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewDNSResolver creates a resolver using the system configuration
func NewDNSResolver(timeout time.Duration, logger *zap.Logger) *DNSResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DNSResolver{Resolver: net.DefaultResolver, Timeout: timeout, Logger: logger}
}

// Resolve returns the canonical name of host without the trailing dot, or
// "" when there is none, the lookup fails, or host is an IP literal.
func (r *DNSResolver) Resolve(ctx context.Context, host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cname, err := r.Resolver.LookupCNAME(ctx, host)
	if err != nil {
		r.Logger.Debug("CNAME lookup failed", zap.String("host", host), zap.Error(err))
		return ""
	}

	cname = strings.TrimSuffix(cname, ".")
	if strings.EqualFold(cname, strings.TrimSuffix(host, ".")) {
		return ""
	}
	return cname
}
