package netutil

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the originating address of the request.
// With trustForwarded set the first X-Forwarded-For entry wins; that is only
// safe behind a reverse proxy that overwrites the header, so without the flag
// the header is ignored and the connection peer is used. Anyone can put
// anything into X-Forwarded-For on a direct connection.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if !trustForwarded {
		return NormalizeIP(r.RemoteAddr)
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return NormalizeIP(ip)
	}

	return NormalizeIP(r.RemoteAddr)
}

// NormalizeIP takes a bare IP string or an address with a port
// (e.g. "192.0.2.4:1234" or "[2001:db8::1]:443") and returns the canonical
// IP portion. Unparseable input is returned trimmed as is.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)

	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().WithZone("").String()
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.WithZone("").String()
	}

	return raw
}
