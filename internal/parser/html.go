package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Patterns are deliberately shallow: the body is an untrusted and possibly
// truncated prefix, so the first plausible match wins and anything
// malformed simply yields no match.
var (
	titleRe     = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	descNameRe  = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["'][^>]*>`)
	descAfterRe = regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']description["'][^>]*>`)
	iconRelRe   = regexp.MustCompile(`(?i)<link[^>]*rel=["'](?:shortcut )?icon["'][^>]*href=["']([^"']*)["'][^>]*>`)
	iconHrefRe  = regexp.MustCompile(`(?i)<link[^>]*href=["']([^"']*)["'][^>]*rel=["'](?:shortcut )?icon["'][^>]*>`)

	unicodeEscapeRe = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
)

// DefaultFaviconPath is used when the page declares no icon
const DefaultFaviconPath = "/favicon.ico"

// PageMetadata is the lightweight metadata pulled from a page
type PageMetadata struct {
	Title       string
	Description string
	Icon        string
}

// ExtractMetadata pulls title, description and favicon from an HTML buffer.
// base is the scan target and anchors relative icon URLs. It never fails:
// missing elements are reported as empty fields.
func ExtractMetadata(body []byte, base *url.URL) PageMetadata {
	var meta PageMetadata

	if m := titleRe.FindSubmatch(body); m != nil {
		meta.Title = decodeText(strings.TrimSpace(string(m[1])))
	}

	if m := firstSubmatch(body, descNameRe, descAfterRe); m != "" {
		meta.Description = decodeText(strings.TrimSpace(m))
	}

	meta.Icon = resolveIcon(firstSubmatch(body, iconRelRe, iconHrefRe), base)
	return meta
}

// firstSubmatch returns the first capture group of the first pattern that matches
func firstSubmatch(body []byte, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1])
		}
	}
	return ""
}

// resolveIcon makes href absolute against base, falling back to /favicon.ico
// when href is empty or cannot be parsed.
func resolveIcon(href string, base *url.URL) string {
	if base == nil {
		return ""
	}
	href = strings.TrimSpace(href)
	if href != "" {
		if ref, err := base.Parse(html.UnescapeString(href)); err == nil {
			return ref.String()
		}
	}
	ref, err := base.Parse(DefaultFaviconPath)
	if err != nil {
		return ""
	}
	return ref.String()
}

// decodeText resolves \uXXXX escapes (common in server-rendered JSON that
// leaks into titles) and then HTML entities.
func decodeText(s string) string {
	s = unicodeEscapeRe.ReplaceAllStringFunc(s, func(match string) string {
		n, err := strconv.ParseUint(match[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return match
		}
		return string(rune(n))
	})
	return html.UnescapeString(s)
}
