package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"webInspector/internal/output"
)

// MaxMind answers lookups from a local GeoLite2/GeoIP2 City database.
// ISP names are added when the database carries them.
type MaxMind struct {
	reader *geoip2.Reader
	logger *zap.Logger
}

// OpenMaxMind opens the database at path
func OpenMaxMind(path string, logger *zap.Logger) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geo database %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaxMind{reader: reader, logger: logger}, nil
}

// Locate looks up ip in the database
func (m *MaxMind) Locate(_ context.Context, ip string) *output.IPInfo {
	info := &output.IPInfo{IP: ip}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return info
	}

	city, err := m.reader.City(parsed)
	if err != nil {
		m.logger.Debug("geo database lookup failed", zap.String("ip", ip), zap.Error(err))
		return info
	}
	info.Country = city.Country.Names["en"]
	info.City = city.City.Names["en"]
	if len(city.Subdivisions) > 0 {
		info.Region = city.Subdivisions[0].Names["en"]
	}

	// City databases carry neither ISP nor ASN data; those lookups error
	// and are skipped
	if isp, err := m.reader.ISP(parsed); err == nil && isp.ISP != "" {
		info.ISP = isp.ISP
	} else if asn, err := m.reader.ASN(parsed); err == nil && asn != nil {
		info.ISP = asn.AutonomousSystemOrganization
	}
	return info
}

// Close releases the database
func (m *MaxMind) Close() error {
	return m.reader.Close()
}
