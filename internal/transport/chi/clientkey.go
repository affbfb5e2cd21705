package chi

import (
	"net"
	"net/http"
	"strings"
)

const unknownClient = "unknown"

// clientKey identifies the caller for rate limiting: the first X-Forwarded-For
// entry, then the connection address, then a shared "unknown" bucket.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host = strings.TrimSpace(host); host != "" {
			return host
		}
	}

	return unknownClient
}
