package shared

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the requester's IP address, honoring X-Forwarded-For set
// by a trusted proxy. The first hop in the list is the original client.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
