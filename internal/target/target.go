// Package target derives the domain, port and protocol the service scopes
// verifications by from a target URL.
package target

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)

// Target is the (domain, port, ssl) tuple a verification is scoped to.
type Target struct {
	Domain string
	Port   int
	SSL    bool
}

// Parse derives the verification tuple from rawURL.
//
// The domain is the network location up to the first colon. The port is the
// explicit one when present, otherwise 443 for https and 80 for anything else.
func Parse(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("invalid target URL %q: %w", rawURL, err)
	}

	hostParts := strings.Split(u.Host, ":")
	domain := hostParts[0]
	if domain == "" {
		return Target{}, fmt.Errorf("invalid target URL %q: missing host", rawURL)
	}

	ssl := UseSSL(rawURL)
	port := DefaultHTTPPort
	if ssl {
		port = DefaultHTTPSPort
	}
	if len(hostParts) > 1 && hostParts[1] != "" {
		port, err = strconv.Atoi(hostParts[1])
		if err != nil {
			return Target{}, fmt.Errorf("invalid port %q in target URL %q", hostParts[1], rawURL)
		}
	}

	return Target{Domain: domain, Port: port, SSL: ssl}, nil
}

// UseSSL reports whether rawURL uses the https scheme.
func UseSSL(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), "https://")
}

// IsHTTPURL reports whether rawURL starts with http:// or https://.
func IsHTTPURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}
