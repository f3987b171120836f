// Package netx holds small networking helpers shared by client components.
package netx

import (
	"errors"
	"net"
	"net/url"
	"syscall"
)

// IsConnectivityError reports whether err means the remote could not be
// reached at all (DNS failure, refused or reset connection, unreachable
// network). Timeouts are not connectivity errors.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
