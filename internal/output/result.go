package output

import (
	"webInspector/internal/hash"
)

// NotApplicable is reported for TLS fields of plaintext targets
const NotApplicable = "N/A"

// PartialContentNotice marks a report whose body was cut at the size cap
const PartialContentNotice = "Partial content (size limit)"

// CertificateSnapshot describes the leaf certificate presented during the handshake
type CertificateSnapshot struct {
	Subject            string   `json:"subject"`
	Issuer             string   `json:"issuer"`
	ValidFrom          string   `json:"validFrom"`
	ValidTo            string   `json:"validTo"`
	DaysRemaining      int      `json:"daysRemaining"`
	SerialNumber       string   `json:"serialNumber"`
	Fingerprint        string   `json:"fingerprint"`
	Fingerprint256     string   `json:"fingerprint256,omitempty"`
	SANs               []string `json:"sans,omitempty"`
	IsExpired          bool     `json:"isExpired"`
	IsSelfSigned       bool     `json:"isSelfSigned"`
	KeyAlgorithm       string   `json:"keyAlgorithm,omitempty"`
	KeySize            int      `json:"keySize,omitempty"`
	SignatureAlgorithm string   `json:"signatureAlgorithm,omitempty"`
}

// TLSFindings is the outcome of a successful handshake with a secure target
type TLSFindings struct {
	Version string               `json:"tlsVersion"`
	Cipher  string               `json:"cipher"`
	ALPN    string               `json:"alpn,omitempty"`
	IP      string               `json:"ip,omitempty"`
	Cert    *CertificateSnapshot `json:"cert,omitempty"`
}

// PhaseTimings holds per-phase latency in milliseconds.
// Total is always DNS+TCP+TLS+TTFB.
type PhaseTimings struct {
	DNS   int64 `json:"dns"`
	TCP   int64 `json:"tcp"`
	TLS   int64 `json:"tls"`
	TTFB  int64 `json:"ttfb"`
	Total int64 `json:"total"`
}

// IPInfo carries geolocation for the remote address. Only IP is guaranteed.
type IPInfo struct {
	IP      string `json:"ip"`
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

// Report is the aggregate result of one inspection
type Report struct {
	ScanID    string `json:"scanId"`
	URL       string `json:"url"`
	ScannedAt string `json:"scannedAt"`
	IP        string `json:"ip,omitempty"`
	CNAME     string `json:"cname,omitempty"`

	SupportsHTTP11 bool   `json:"supportsHttp1_1"`
	SupportsHTTP2  bool   `json:"supportsHttp2"`
	SupportsHTTP3  bool   `json:"supportsHttp3"`
	SupportsHSTS   bool   `json:"supportsHsts"`
	HSTSHeader     string `json:"hstsHeader,omitempty"`
	AltSvc         string `json:"altSvc,omitempty"`
	HTTP3Verified  *bool  `json:"http3Verified,omitempty"`

	TLSVersion string               `json:"tlsVersion,omitempty"`
	Cipher     string               `json:"cipher,omitempty"`
	ALPN       string               `json:"alpn,omitempty"`
	Cert       *CertificateSnapshot `json:"cert,omitempty"`

	StatusCode int               `json:"statusCode,omitempty"`
	Protocol   string            `json:"protocol,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Timings    *PhaseTimings     `json:"timings,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`

	IPInfo *IPInfo `json:"ipInfo,omitempty"`

	Partial      bool       `json:"partial,omitempty"`
	Notice       string     `json:"notice,omitempty"`
	Hash         *hash.Hash `json:"hash,omitempty"`
	CDN          bool       `json:"cdn,omitempty"`
	CDNName      string     `json:"cdnName,omitempty"`
	Technologies []string   `json:"tech,omitempty"`

	// hosts named by the certificate SANs or the CSP, other than the target
	RelatedDomains []string `json:"relatedDomains,omitempty"`

	Error string `json:"error,omitempty"`
}

// Failed reports whether the inspection ended with a terminal error
func (r *Report) Failed() bool {
	return r.Error != ""
}

// ErrorReport builds a report that carries only an error. Every capability
// flag is left false so consumers can render a uniform unknown state.
func ErrorReport(scanID, url, scannedAt, msg string) Report {
	return Report{
		ScanID:    scanID,
		URL:       url,
		ScannedAt: scannedAt,
		Error:     msg,
	}
}
