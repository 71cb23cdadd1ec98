// Package clientip extracts the originating client IP from proxied HTTP
// requests. The engine passes it to the captcha provider, which scores
// verification attempts per address.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client's IP address, preferring trusted proxy headers
// over the socket address. Values that do not parse as an IP are skipped
// rather than forwarded.
func GetIP(r *http.Request) string {
	// CDN header carries the real client when the edge terminates TLS.
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For may list several hops; the first valid entry is the
	// original client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for hop := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(hop); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, already a bare IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string. Returns an empty
// string for anything net.ParseIP rejects.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
