package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientInfo is what a request says about the device behind it.
type ClientInfo struct {
	DeviceID  string
	IP        string
	RequestID string
	UserAgent string
}

// ClientInfoFromRequest reads the client headers. The IP is the first
// X-Forwarded-For hop when present, otherwise the remote address.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		DeviceID:  r.Header.Get("X-Device-Id"),
		IP:        clientIP(r),
		RequestID: r.Header.Get("X-Request-Id"),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
