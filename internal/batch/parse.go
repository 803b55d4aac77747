// Package batch turns a file of URLs into the smallest set of scans: URLs
// sharing protocol, domain and port are launched together with the union of
// their paths.
package batch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MalformedLineError describes a batch input line that could not be parsed.
// It is non-fatal: the line is skipped and processing continues.
type MalformedLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Origin is the grouping key of a batch URL.
type Origin struct {
	Protocol string
	Domain   string
	Port     int
}

// ParseURL splits a raw URL into its origin and path. Protocol and domain are
// lowercased; the port defaults to 80 for http and 443 for https.
//
// The path comes from splitting the raw text on "/" rather than from the
// parsed URL, so "http://a.com/x?y#z" yields "/x?y#z" and percent-encoding is
// preserved verbatim.
func ParseURL(raw string) (Origin, string, error) {
	parts := strings.SplitN(raw, "/", 4)
	var path string
	switch len(parts) {
	case 3:
		path = "/"
	case 4:
		path = "/" + parts[3]
	default:
		return Origin{}, "", fmt.Errorf("invalid URL: %s", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Origin{}, "", fmt.Errorf("invalid URL: %s", raw)
	}

	protocol := strings.ToLower(u.Scheme)
	if protocol != "http" && protocol != "https" {
		return Origin{}, "", fmt.Errorf("invalid URL protocol %q", protocol)
	}

	hostParts := strings.Split(u.Host, ":")
	domain := strings.ToLower(hostParts[0])
	if domain == "" {
		return Origin{}, "", fmt.Errorf("invalid URL: %s", raw)
	}

	var port int
	switch {
	case len(hostParts) == 2:
		port, err = strconv.Atoi(hostParts[1])
		if err != nil {
			return Origin{}, "", fmt.Errorf("invalid port: %q", hostParts[1])
		}
	case protocol == "https":
		port = 443
	default:
		port = 80
	}

	return Origin{Protocol: protocol, Domain: domain, Port: port}, path, nil
}
