// Package client extracts caller metadata (address, User-Agent and a parsed
// browser/OS description) into the request context.
package client

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"medcred/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds X-Forwarded-For / X-Real-IP values.
const MaxForwardedHeaderLength = 500

// Middleware records client metadata. Forwarding headers are only honoured
// when the direct peer sits inside one of TrustedProxies.
type Middleware struct {
	trustedProxies []netip.Prefix
}

// New parses the trusted proxy CIDRs. Invalid entries are reported.
func New(trustedProxies []string) (*Middleware, error) {
	m := &Middleware{}
	for _, raw := range trustedProxies {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		m.trustedProxies = append(m.trustedProxies, prefix)
	}
	return m, nil
}

// Handler stores client IP, raw User-Agent and platform on the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), userAgent)
		if platform := Platform(userAgent); platform != "" {
			ctx = requestcontext.WithClientPlatform(ctx, platform)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Platform summarises a User-Agent as "<browser> <version> on <os>".
// Wallet apps and scripts that send no recognisable browser yield the
// product token alone; an empty User-Agent yields "".
func Platform(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	if major, _, ok := strings.Cut(version, "."); ok {
		version = major
	}
	browser := strings.TrimSpace(name + " " + version)

	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	default:
		return os
	}
}

func (m *Middleware) clientIP(r *http.Request) string {
	remote := peerAddr(r.RemoteAddr)
	if remote == "" {
		return "unknown"
	}
	if !m.trusted(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		return remote
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxForwardedHeaderLength {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	return remote
}

func (m *Middleware) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// peerAddr strips the port from RemoteAddr.
func peerAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.String()
	}
	return remoteAddr
}
