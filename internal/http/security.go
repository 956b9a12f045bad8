package http

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
)

// securityMetrics counts rejected and flagged requests for /readyz.
type securityMetrics struct {
	rateLimitHits      atomic.Int64
	suspiciousRequests atomic.Int64
}

// SecuritySnapshot is a point-in-time copy of securityMetrics.
type SecuritySnapshot struct {
	RateLimitHits      int64 `json:"rate_limit_hits"`
	SuspiciousRequests int64 `json:"suspicious_requests"`
}

func (m *securityMetrics) snapshot() SecuritySnapshot {
	return SecuritySnapshot{
		RateLimitHits:      m.rateLimitHits.Load(),
		SuspiciousRequests: m.suspiciousRequests.Load(),
	}
}

// Forwarding headers are honoured only from loopback and private ranges.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
}

func fromTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the first forwarded
// address when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !fromTrustedProxy(peer) {
		return host
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
		return addr.String()
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

// Paths and payload fragments no page of this app ever produces.
var (
	hostilePaths = []string{
		".env", ".git", ".ssh", "wp-admin", "wp-login", "phpmyadmin",
		".php", "cgi-bin", "etc/passwd", "cmd.exe",
	}
	injectionMarkers = []string{
		"../", "..\\", "<script", "javascript:", "union select", "eval(",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
	}
)

// suspicionReason names the first rule r trips, or returns "" for an
// ordinary request. Flagged requests are still served; the reason is
// logged and counted.
func suspicionReason(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete:
	default:
		return "method " + r.Method
	}

	path := strings.ToLower(r.URL.Path)
	for _, p := range hostilePaths {
		if strings.Contains(path, p) {
			return "hostile path " + p
		}
	}

	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if decoded, err := url.QueryUnescape(target); err == nil {
		target = decoded
	}
	for _, m := range injectionMarkers {
		if strings.Contains(target, m) {
			return "injection marker " + m
		}
	}

	ua := strings.ToLower(r.UserAgent())
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return "scanner agent " + a
		}
	}

	if len(r.URL.RequestURI()) > 2048 {
		return "oversized URL"
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "long forwarding chain"
	}
	return ""
}

// flagSuspicious records and returns the reason a request looks hostile.
func flagSuspicious(r *http.Request, metrics *securityMetrics) string {
	reason := suspicionReason(r)
	if reason != "" && metrics != nil {
		metrics.suspiciousRequests.Add(1)
	}
	return reason
}
