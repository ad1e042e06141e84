// Package security provides client IP resolution and security headers for
// the HTTP API.
package security

import (
	"net"
	"net/http"
	"strings"
)

// IPExtractor resolves the real client IP. Forwarding headers are only
// honored when the direct peer is a trusted proxy, so clients cannot
// spoof their way past the rate limiter.
type IPExtractor struct {
	trusted []*net.IPNet
}

// NewIPExtractor trusts loopback and the private RFC 1918 ranges.
func NewIPExtractor() *IPExtractor {
	return &IPExtractor{
		trusted: []*net.IPNet{
			mustCIDR("127.0.0.0/8"),
			mustCIDR("::1/128"),
			mustCIDR("10.0.0.0/8"),
			mustCIDR("172.16.0.0/12"),
			mustCIDR("192.168.0.0/16"),
		},
	}
}

// AddTrustedProxy adds a CIDR whose forwarding headers are honored.
func (e *IPExtractor) AddTrustedProxy(cidr string) error {
	network, err := parseCIDR(cidr)
	if err != nil {
		return err
	}
	e.trusted = append(e.trusted, network)
	return nil
}

// ClientIP returns the peer address, following X-Forwarded-For or
// X-Real-IP only when the peer is trusted.
func (e *IPExtractor) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer := net.ParseIP(host)
	if peer == nil || !e.isTrusted(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return host
}

func (e *IPExtractor) isTrusted(ip net.IP) bool {
	for _, network := range e.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseCIDR(cidr string) (*net.IPNet, error) {
	_, network, err := net.ParseCIDR(cidr)
	return network, err
}

func mustCIDR(cidr string) *net.IPNet {
	network, err := parseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return network
}
