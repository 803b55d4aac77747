package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hakim/tagcube/internal/models"
	"github.com/hakim/tagcube/internal/target"
)

// VerifiedTarget is the outcome of a successful verification gate.
type VerifiedTarget struct {
	Target       target.Target
	Domain       *models.Domain
	Verification *models.Verification
}

// GetLatestVerification returns the verification with the highest id for
// (domain, port, ssl), or nil when none exists.
func (c *Client) GetLatestVerification(ctx context.Context, domainID int64, port int, ssl bool) (*models.Verification, error) {
	filters := url.Values{
		"domain_href": {strconv.FormatInt(domainID, 10)},
		"port":        {strconv.Itoa(port)},
		"ssl":         {strconv.FormatBool(ssl)},
	}
	res, err := c.filterLatest(ctx, collectionVerifications, filters)
	if err != nil || res == nil {
		return nil, err
	}
	return decodeVerification(res)
}

// AddVerification asks the service to verify ownership of domain:port. The
// server decides the outcome at creation; a verification with Success false is
// a normal result, not an error.
func (c *Client) AddVerification(ctx context.Context, domainID int64, port int, ssl bool) (*models.Verification, error) {
	body := map[string]any{
		"domain_href": c.apiPath(collectionDomains, domainID),
		"port":        port,
		"ssl":         ssl,
	}
	res, err := c.create(ctx, collectionVerifications, body)
	if err != nil {
		return nil, err
	}
	return decodeVerification(res)
}

// CanScan reports whether v allows scanning. There is no partial state.
func CanScan(v *models.Verification) bool {
	return v != nil && v.Success
}

// VerifyTarget makes sure targetURL may be scanned. It resolves or creates the
// domain, resolves the latest verification for (domain, port, ssl) and creates
// one when none exists. A verification that did not succeed yields a
// *ScanNotPermittedError; it is never retried.
func (c *Client) VerifyTarget(ctx context.Context, targetURL string) (*VerifiedTarget, error) {
	t, err := target.Parse(targetURL)
	if err != nil {
		return nil, err
	}

	domain, err := c.ResolveDomain(ctx, t.Domain)
	if err != nil {
		return nil, fmt.Errorf("resolving domain %s: %w", t.Domain, err)
	}

	verification, err := c.GetLatestVerification(ctx, domain.ID, t.Port, t.SSL)
	if err != nil {
		return nil, fmt.Errorf("resolving verification for %s:%d: %w", t.Domain, t.Port, err)
	}
	if verification == nil {
		c.logger.Debug("no verification found, requesting one", "domain", t.Domain, "port", t.Port, "ssl", t.SSL)
		verification, err = c.AddVerification(ctx, domain.ID, t.Port, t.SSL)
		if err != nil {
			return nil, fmt.Errorf("verifying %s:%d: %w", t.Domain, t.Port, err)
		}
	}

	if !CanScan(verification) {
		return nil, &ScanNotPermittedError{
			Domain:  t.Domain,
			Port:    t.Port,
			SSL:     t.SSL,
			Message: verification.VerificationMessage,
		}
	}

	return &VerifiedTarget{Target: t, Domain: domain, Verification: verification}, nil
}

func decodeVerification(res models.Resource) (*models.Verification, error) {
	var v models.Verification
	if err := res.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
