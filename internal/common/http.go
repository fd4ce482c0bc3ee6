package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the host part of the request remote address. The router runs
// chi's RealIP middleware first, so proxy headers are already folded into RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
