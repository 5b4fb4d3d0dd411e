package cdn

import (
	"net/http"
	"strings"
)

// signature matches a CDN by response header. An empty Contains only
// requires the header to carry a non-empty value.
type signature struct {
	Provider string
	Header   string
	Contains string
}

var signatures = []signature{
	{Provider: "Cloudflare", Header: "Cf-Ray"},
	{Provider: "Cloudflare", Header: "Server", Contains: "cloudflare"},
	{Provider: "CloudFront", Header: "X-Amz-Cf-Id"},
	{Provider: "CloudFront", Header: "X-Amz-Cf-Pop"},
	{Provider: "CloudFront", Header: "Via", Contains: "cloudfront"},
	{Provider: "Fastly", Header: "X-Fastly-Request-Id"},
	{Provider: "Fastly", Header: "Fastly-Debug-Digest"},
	{Provider: "Akamai", Header: "X-Akamai-Transformed"},
	{Provider: "Akamai", Header: "Server", Contains: "akamaighost"},
	{Provider: "Azure Front Door", Header: "X-Azure-Ref"},
	{Provider: "Google Cloud CDN", Header: "Via", Contains: "1.1 google"},
	{Provider: "Vercel", Header: "X-Vercel-Id"},
	{Provider: "Netlify", Header: "X-Nf-Request-Id"},
	{Provider: "BunnyCDN", Header: "Server", Contains: "bunnycdn"},
	{Provider: "Sucuri", Header: "X-Sucuri-Id"},
	{Provider: "Incapsula", Header: "X-Iinfo"},
	{Provider: "KeyCDN", Header: "Server", Contains: "keycdn"},
	{Provider: "StackPath", Header: "X-Hw"},
	{Provider: "Varnish", Header: "Via", Contains: "varnish"},
}

// Detect returns the CDN provider the response headers point at, or "" when
// none matches. A generic X-CDN header is used as a last resort.
func Detect(headers http.Header) string {
	for _, sig := range signatures {
		val := headers.Get(sig.Header)
		if val == "" {
			continue
		}
		if sig.Contains == "" || strings.Contains(strings.ToLower(val), sig.Contains) {
			return sig.Provider
		}
	}
	return headers.Get("X-CDN")
}
