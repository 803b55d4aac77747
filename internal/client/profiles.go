package client

import (
	"context"
	"net/url"

	"github.com/hakim/tagcube/internal/models"
)

// GetScanProfile returns the profile named name, or nil. Profiles are never
// created by this client.
func (c *Client) GetScanProfile(ctx context.Context, name string) (*models.ScanProfile, error) {
	res, err := c.filterOne(ctx, collectionProfiles, url.Values{"name": {name}})
	if err != nil || res == nil {
		return nil, err
	}
	var p models.ScanProfile
	if err := res.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListScanProfiles returns every profile available to the user.
func (c *Client) ListScanProfiles(ctx context.Context) ([]*models.ScanProfile, error) {
	objects, err := c.Filter(ctx, collectionProfiles, url.Values{}, AllResults)
	if err != nil {
		return nil, err
	}
	profiles := make([]*models.ScanProfile, 0, len(objects))
	for _, res := range objects {
		var p models.ScanProfile
		if err := res.Decode(&p); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}
