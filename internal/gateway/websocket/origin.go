package websocket

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// originChecker validates the Origin header to prevent cross-site
// WebSocket hijacking. Requests without an Origin come from non-browser
// clients and are allowed.
type originChecker struct {
	allowed map[string]bool
}

func newOriginChecker(allowedOrigins []string) *originChecker {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return &originChecker{allowed: allowed}
}

func (o *originChecker) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if o.allowed["*"] || o.allowed[strings.TrimRight(strings.ToLower(origin), "/")] {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	originHost := originURL.Hostname()
	if isLoopback(originHost) {
		return true
	}

	// Same origin, ignoring ports.
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host != "" && strings.EqualFold(originHost, strings.Trim(host, "[]"))
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
