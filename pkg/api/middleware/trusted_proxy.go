package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ProxySet is the set of networks whose forwarding headers are believed.
type ProxySet []netip.Prefix

// ParseTrustedProxies reads a comma-separated list of CIDRs or bare
// addresses. Bad entries are reported together in the error while the
// good ones are still returned.
func ParseTrustedProxies(list string) (ProxySet, error) {
	var (
		set  ProxySet
		errs []error
	)
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, err := parseProxy(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set = append(set, p)
	}
	return set, errors.Join(errs...)
}

func parseProxy(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid trusted proxy CIDR %q: %w", entry, err)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid trusted proxy IP %q", entry)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// remoteAddr parses "host:port" or a bare host.
func remoteAddr(s string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

// Trusts reports whether the request peer at addr is a trusted proxy.
func (ps ProxySet) Trusts(addr string) bool {
	ip, ok := remoteAddr(addr)
	if !ok {
		return false
	}
	for _, p := range ps {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedClient reads X-Real-IP, then the leftmost X-Forwarded-For hop.
func forwardedClient(h http.Header) (string, bool) {
	candidates := []string{h.Get("X-Real-IP")}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	for _, c := range candidates {
		if a, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return a.String(), true
		}
	}
	return "", false
}

// ClientIP keys requests on the client address, honouring forwarding
// headers only when the peer is in ps.
func ClientIP(ps ProxySet) ClientIDFunc {
	return func(r *http.Request) string {
		if ps.Trusts(r.RemoteAddr) {
			if ip, ok := forwardedClient(r.Header); ok {
				return ip
			}
		}
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
}
