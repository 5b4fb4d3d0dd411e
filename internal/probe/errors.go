package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTLSTimeout is returned when the TLS phase exceeds its deadline
	ErrTLSTimeout = errors.New("TLS connection timed out")

	// ErrHTTPTimeout is returned when the request, body included, exceeds its deadline
	ErrHTTPTimeout = errors.New("HTTP request timed out")
)

// TLSError wraps a handshake failure other than a timeout
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("TLS connection failed: %v", e.Err)
}

func (e *TLSError) Unwrap() error {
	return e.Err
}

// TransportError wraps an HTTP request failure other than a timeout
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// isTimeout reports whether err came from an expired deadline, either the
// context's or a socket deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
