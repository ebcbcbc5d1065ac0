package middleware

import (
	"net"
	"net/http"
	"strings"
)

const (
	forwardedForHeader = "X-Forwarded-For"
	realIPHeader       = "X-Real-IP"
)

// ClientIP resolves the real client identifier for a request. Behind a proxy
// or load balancer the peer address is the proxy, so the forwarding chain is
// consulted first: the left-most entry of X-Forwarded-For is the original
// client. X-Real-IP is the single fallback header, then the transport-level
// peer address.
//
// Every component that needs a client identity (rate limiting, audit) must
// go through this one function so they can never disagree.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(forwardedForHeader); strings.TrimSpace(xff) != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if realIP := strings.TrimSpace(r.Header.Get(realIPHeader)); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
