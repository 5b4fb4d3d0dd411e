// Package geo resolves the location of IP addresses. Lookups never fail
// the caller: when a provider cannot answer, only the IP is reported.
package geo

import (
	"context"

	"webInspector/internal/output"
)

// Locator resolves an IP address to its location
type Locator interface {
	Locate(ctx context.Context, ip string) *output.IPInfo
}
