package hash

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/twmb/murmur3"
)

// Hash fingerprints the buffered part of a response so two scans of the
// same site can be compared cheaply.
type Hash struct {
	BodyMMH3   string `json:"body_mmh3"`
	HeaderMMH3 string `json:"header_mmh3"`
}

// Of hashes the (possibly truncated) body and the response headers
func Of(body []byte, headers http.Header) *Hash {
	return &Hash{
		BodyMMH3:   Sum(body),
		HeaderMMH3: HeaderSum(headers),
	}
}

// Sum returns the 32-bit murmur3 hash of data as a decimal string
func Sum(data []byte) string {
	return strconv.FormatUint(uint64(murmur3.Sum32(data)), 10)
}

// HeaderSum hashes headers in canonical "Key: value\n" form, keys sorted,
// values in received order.
func HeaderSum(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	size := 0
	for k, vals := range headers {
		keys = append(keys, k)
		for _, v := range vals {
			size += len(k) + len(v) + 3
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.Grow(size)
	for _, k := range keys {
		for _, v := range headers[k] {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return Sum([]byte(b.String()))
}
