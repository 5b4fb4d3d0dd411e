package probe

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"webInspector/internal/output"
)

// cspFetchDirectives are the policy directives whose values are source lists
var cspFetchDirectives = map[string]bool{
	"default-src":     true,
	"script-src":      true,
	"style-src":       true,
	"img-src":         true,
	"connect-src":     true,
	"font-src":        true,
	"frame-src":       true,
	"media-src":       true,
	"object-src":      true,
	"form-action":     true,
	"frame-ancestors": true,
	"child-src":       true,
	"worker-src":      true,
	"manifest-src":    true,
}

// cspKeywords are source values that never name a host
var cspKeywords = map[string]bool{
	"'self'":             true,
	"'unsafe-inline'":    true,
	"'unsafe-eval'":      true,
	"'unsafe-hashes'":    true,
	"'strict-dynamic'":   true,
	"'report-sample'":    true,
	"'none'":             true,
	"'wasm-unsafe-eval'": true,
	"data:":              true,
	"blob:":              true,
	"mediastream:":       true,
	"filesystem:":        true,
	"https:":             true,
	"http:":              true,
	"wss:":               true,
	"ws:":                true,
	"*":                  true,
}

// RelatedDomains lists the hosts, other than host itself, that the
// certificate covers or the Content-Security-Policy loads from. The result
// is lower-cased, deduplicated and sorted; nil when there are none.
func RelatedDomains(cert *output.CertificateSnapshot, headers http.Header, host string) []string {
	host = strings.ToLower(host)
	seen := map[string]bool{host: true}
	var domains []string

	add := func(d string) {
		d = strings.TrimSuffix(strings.ToLower(d), ".")
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		domains = append(domains, d)
	}

	if cert != nil {
		for _, san := range cert.SANs {
			// SANs also carry IP addresses
			if net.ParseIP(san) == nil {
				add(san)
			}
		}
	}
	for _, d := range CSPDomains(headers.Values("Content-Security-Policy")) {
		add(d)
	}

	sort.Strings(domains)
	return domains
}

// CSPDomains extracts the host sources of every fetch directive in the
// given policies, in order of appearance.
func CSPDomains(policies []string) []string {
	var domains []string
	for _, policy := range policies {
		for _, directive := range strings.Split(policy, ";") {
			fields := strings.Fields(directive)
			if len(fields) < 2 || !cspFetchDirectives[strings.ToLower(fields[0])] {
				continue
			}
			for _, source := range fields[1:] {
				if d := cspSourceHost(source); d != "" {
					domains = append(domains, d)
				}
			}
		}
	}
	return domains
}

// cspSourceHost returns the host of a single source expression, keeping a
// leading "*." wildcard. Keywords, nonces and hashes yield "".
func cspSourceHost(source string) string {
	lower := strings.ToLower(source)
	if cspKeywords[lower] || strings.HasPrefix(lower, "'") {
		return ""
	}

	if strings.Contains(lower, "://") {
		u, err := url.Parse(lower)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}

	if i := strings.IndexByte(lower, '/'); i != -1 {
		lower = lower[:i]
	}
	if h, _, err := net.SplitHostPort(lower); err == nil {
		lower = h
	}
	if !strings.Contains(lower, ".") {
		return ""
	}
	return lower
}
