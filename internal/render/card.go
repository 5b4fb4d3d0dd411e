// Package render prints reports as coloured terminal cards.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"webInspector/internal/output"
)

var (
	colorTitle   = color.New(color.FgCyan, color.Bold).SprintFunc()
	colorLabel   = color.New(color.FgHiBlack).SprintFunc()
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// certWarnDays is the remaining validity below which a certificate is highlighted
const certWarnDays = 30

// Card writes r to w as a labelled block. Empty fields are omitted.
func Card(w io.Writer, r output.Report) error {
	var b strings.Builder

	b.WriteString(colorTitle(r.URL))
	if r.ScanID != "" {
		fmt.Fprintf(&b, " %s", colorLabel("("+r.ScanID+")"))
	}
	b.WriteByte('\n')

	if r.Failed() {
		line(&b, "Error", colorError(r.Error))
		line(&b, "CNAME", r.CNAME)
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}

	if r.StatusCode != 0 {
		line(&b, "Status", strings.TrimSpace(fmt.Sprintf("%s %s", formatStatus(r.StatusCode), r.Protocol)))
	}
	line(&b, "IP", formatIP(r))
	line(&b, "CNAME", r.CNAME)
	line(&b, "Protocols", formatProtocols(r))
	line(&b, "HSTS", r.HSTSHeader)
	line(&b, "Alt-Svc", r.AltSvc)

	if r.TLSVersion != "" && r.TLSVersion != output.NotApplicable {
		line(&b, "TLS", fmt.Sprintf("%s, %s", r.TLSVersion, r.Cipher))
	} else {
		line(&b, "TLS", colorLabel(output.NotApplicable))
	}
	if c := r.Cert; c != nil {
		line(&b, "Subject", c.Subject)
		line(&b, "Issuer", c.Issuer)
		line(&b, "Valid", fmt.Sprintf("%s - %s (%s)", c.ValidFrom, c.ValidTo, formatDaysRemaining(c.DaysRemaining)))
		if c.IsSelfSigned {
			line(&b, "", colorWarn("self-signed"))
		}
	}

	if t := r.Timings; t != nil {
		line(&b, "Timings", fmt.Sprintf("dns %dms  tcp %dms  tls %dms  ttfb %dms  total %dms",
			t.DNS, t.TCP, t.TLS, t.TTFB, t.Total))
	}

	line(&b, "Title", r.Title)
	line(&b, "Description", r.Description)
	line(&b, "Icon", r.Icon)
	if r.CDN {
		line(&b, "CDN", r.CDNName)
	}
	line(&b, "Tech", strings.Join(r.Technologies, ", "))
	line(&b, "Related", strings.Join(r.RelatedDomains, ", "))
	if r.Notice != "" {
		line(&b, "Notice", colorWarn(r.Notice))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func line(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", colorLabel(fmt.Sprintf("%-12s", label)), value)
}

func formatStatus(code int) string {
	s := fmt.Sprintf("%d", code)
	switch {
	case code >= 500:
		return colorError(s)
	case code >= 400:
		return colorWarn(s)
	default:
		return colorSuccess(s)
	}
}

func formatIP(r output.Report) string {
	if r.IP == "" {
		return ""
	}
	info := r.IPInfo
	if info == nil {
		return r.IP
	}
	var where []string
	for _, part := range []string{info.City, info.Region, info.Country} {
		if part != "" {
			where = append(where, part)
		}
	}
	s := r.IP
	if len(where) > 0 {
		s += " " + strings.Join(where, ", ")
	}
	if info.ISP != "" {
		s += " " + colorLabel("("+info.ISP+")")
	}
	return s
}

func formatProtocols(r output.Report) string {
	parts := []string{
		flag("HTTP/1.1", r.SupportsHTTP11),
		flag("HTTP/2", r.SupportsHTTP2),
		flag("HTTP/3", r.SupportsHTTP3),
		flag("HSTS", r.SupportsHSTS),
	}
	if r.HTTP3Verified != nil {
		parts = append(parts, flag("QUIC", *r.HTTP3Verified))
	}
	return strings.Join(parts, "  ")
}

func flag(name string, ok bool) string {
	if ok {
		return colorSuccess("+" + name)
	}
	return colorError("-" + name)
}

func formatDaysRemaining(days int) string {
	switch {
	case days < 0:
		return colorError(fmt.Sprintf("expired %d days ago", -days))
	case days < certWarnDays:
		return colorWarn(fmt.Sprintf("%d days left", days))
	default:
		return colorSuccess(fmt.Sprintf("%d days left", days))
	}
}
