package client

import (
	"context"
	"net/url"

	"github.com/hakim/tagcube/internal/models"
)

// GetDomain returns the domain resource for hostname, or nil if none exists.
func (c *Client) GetDomain(ctx context.Context, hostname string) (*models.Domain, error) {
	res, err := c.filterOne(ctx, collectionDomains, url.Values{"domain": {hostname}})
	if err != nil || res == nil {
		return nil, err
	}
	var domain models.Domain
	if err := res.Decode(&domain); err != nil {
		return nil, err
	}
	return &domain, nil
}

// AddDomain registers hostname. An empty description uses DefaultDescription.
func (c *Client) AddDomain(ctx context.Context, hostname, description string) (*models.Domain, error) {
	if description == "" {
		description = DefaultDescription
	}
	body := map[string]any{
		"domain":      hostname,
		"description": description,
	}
	res, err := c.create(ctx, collectionDomains, body)
	if err != nil {
		return nil, err
	}
	var domain models.Domain
	if err := res.Decode(&domain); err != nil {
		return nil, err
	}
	return &domain, nil
}

// ResolveDomain returns the existing domain resource for hostname, creating it
// when absent.
func (c *Client) ResolveDomain(ctx context.Context, hostname string) (*models.Domain, error) {
	domain, err := c.GetDomain(ctx, hostname)
	if err != nil {
		return nil, err
	}
	if domain != nil {
		return domain, nil
	}
	c.logger.Debug("domain not registered, creating it", "domain", hostname)
	return c.AddDomain(ctx, hostname, "")
}
