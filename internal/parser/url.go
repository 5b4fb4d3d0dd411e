package parser

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrMissingScheme is returned when the input does not start with http:// or https://
var ErrMissingScheme = errors.New("URL must start with http:// or https://")

// maxURLLength bounds user input before any parsing is attempted
const maxURLLength = 2048

// Target is an immutable scan target built once from user input
type Target struct {
	Raw    string   // input exactly as submitted
	URL    *url.URL // parsed form, used for request building and relative URL resolution
	Scheme string   // "http" or "https"
	Host   string   // hostname in ASCII (IDNA) form, no port
	Port   string   // explicit port or the scheme default
}

// Secure reports whether the target is reached over TLS
func (t Target) Secure() bool {
	return t.Scheme == "https"
}

// Address returns host:port suitable for dialing
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// String returns the raw input
func (t Target) String() string {
	return t.Raw
}

// ParseTarget validates the input and builds a Target. The scheme must be
// explicit: bare hostnames are rejected rather than guessed.
func ParseTarget(input string) (Target, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return Target{}, ErrMissingScheme
	}
	if len(input) > maxURLLength {
		return Target{}, fmt.Errorf("URL too long (max %d chars)", maxURLLength)
	}
	if strings.ContainsRune(input, 0) {
		return Target{}, fmt.Errorf("URL contains null bytes")
	}

	u, err := url.Parse(input)
	if err != nil {
		return Target{}, err
	}

	hostname := u.Hostname()
	if hostname == "" {
		return Target{}, fmt.Errorf("empty hostname")
	}

	// IP literals pass through untouched; names go to their ASCII form so
	// SNI and DNS see the same label the server was configured with.
	// Names IDNA rejects (underscores, for one) are still dialable as-is.
	host := hostname
	if net.ParseIP(hostname) == nil {
		if ascii, err := idna.Lookup.ToASCII(hostname); err == nil {
			host = ascii
		}
	}

	port := u.Port()
	if port == "" {
		port = DefaultPort(u.Scheme)
	}

	return Target{
		Raw:    input,
		URL:    u,
		Scheme: u.Scheme,
		Host:   host,
		Port:   port,
	}, nil
}

// DefaultPort returns the well-known port for a scheme
func DefaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

// RequestURL returns the URL used for the HTTP request. Default ports are
// stripped so the Host header matches what browsers send; some servers
// reject "Host: example.com:443".
func (t Target) RequestURL() string {
	u := *t.URL
	if u.Port() == DefaultPort(u.Scheme) {
		u.Host = u.Hostname()
		if strings.Contains(u.Host, ":") {
			u.Host = "[" + u.Host + "]"
		}
	}
	return u.String()
}
