// Package scope restricts which hosts may be scanned.
package scope

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrOutOfScope is wrapped by every validation failure.
var ErrOutOfScope = errors.New("target is outside allowed scope")

// Config defines allowed scanning boundaries.
// An empty Config (no rules) allows any target.
type Config struct {
	// AllowedDomains is a list of domain patterns the host must match.
	// Wildcard prefix ("*.example.com") matches any single-label subdomain.
	// Exact entry ("example.com") matches only that literal value.
	AllowedDomains []string

	// AllowedCIDRs is a list of CIDR ranges an IP host must fall within.
	AllowedCIDRs []string
}

// Empty reports whether no rule is configured.
func (c *Config) Empty() bool {
	return c == nil || (len(c.AllowedDomains) == 0 && len(c.AllowedCIDRs) == 0)
}

// ValidateHost checks a hostname or IP literal against the configured rules.
// IP literals must fall within AllowedCIDRs and names must match
// AllowedDomains; once any rule is configured, a host with no applicable rule
// is out of scope.
func (c *Config) ValidateHost(host string) error {
	if c.Empty() {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return c.validateIP(ip)
	}
	return c.validateDomain(host)
}

func (c *Config) validateDomain(host string) error {
	for _, pattern := range c.AllowedDomains {
		if domainMatches(host, pattern) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (domains: %s)", ErrOutOfScope, host, strings.Join(c.AllowedDomains, ", "))
}

func (c *Config) validateIP(ip net.IP) error {
	for _, cidr := range c.AllowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (CIDRs: %s)", ErrOutOfScope, ip.String(), strings.Join(c.AllowedCIDRs, ", "))
}

// domainMatches returns true when host satisfies the scope pattern.
//
//   - "*.example.com" matches "foo.example.com" but not "example.com" or
//     "foo.bar.example.com".
//   - "example.com" matches only "example.com".
//   - Comparison is case-insensitive.
func domainMatches(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)

	if !strings.HasPrefix(pattern, "*.") {
		return host == pattern
	}

	suffix := pattern[2:]
	if !strings.HasSuffix(host, "."+suffix) {
		return false
	}

	label := host[:len(host)-len(suffix)-1]
	return len(label) > 0 && !strings.Contains(label, ".")
}
