package client

import (
	"context"
	"fmt"

	"github.com/hakim/tagcube/internal/models"
	"github.com/hakim/tagcube/internal/target"
)

// DefaultScanProfile is used when a ScanRequest names no profile.
const DefaultScanProfile = "full_audit"

// ScanRequest is the input of QuickScan.
type ScanRequest struct {
	// TargetURL is the scan root, e.g. https://www.example.com/.
	TargetURL string
	// EmailNotify receives the completion notice; empty means the
	// authenticated user's email.
	EmailNotify string
	// ScanProfile is the profile name; empty means DefaultScanProfile.
	ScanProfile string
	// PathList bootstraps the crawler; empty means ["/"].
	PathList []string
}

// QuickScan resolves every resource a scan needs and launches it:
//
//  1. the scan profile, which must already exist;
//  2. the verification gate for TargetURL;
//  3. the email notification, created when missing;
//  4. the scan itself.
//
// The profile is checked before anything is created. Each call creates at
// most one scan and carries no idempotency key, so calling it twice launches
// two scans.
func (c *Client) QuickScan(ctx context.Context, req ScanRequest) (*models.Scan, error) {
	profileName := valueOr(req.ScanProfile, DefaultScanProfile)
	paths := req.PathList
	if len(paths) == 0 {
		paths = target.DefaultPaths()
	}

	profile, err := c.GetScanProfile(ctx, profileName)
	if err != nil {
		return nil, fmt.Errorf("resolving scan profile %q: %w", profileName, err)
	}
	if profile == nil {
		return nil, &UnknownProfileError{Name: profileName}
	}

	verified, err := c.VerifyTarget(ctx, req.TargetURL)
	if err != nil {
		return nil, err
	}

	notifyEmail := valueOr(req.EmailNotify, c.email)
	notification, err := c.ResolveEmailNotification(ctx, notifyEmail)
	if err != nil {
		return nil, fmt.Errorf("resolving email notification %s: %w", notifyEmail, err)
	}

	return c.LowLevelScan(ctx, verified.Verification, profile, paths, []*models.EmailNotification{notification})
}

// LowLevelScan starts a scan from already resolved resources with one POST to
// /{version}/scans/:
//
//	{"verification_href": "/1.0/verifications/6",
//	 "profile_href": "/1.0/profiles/2",
//	 "start_time": "now",
//	 "email_notifications_href": ["/1.0/notifications/email/1"],
//	 "path_list": ["/"]}
func (c *Client) LowLevelScan(
	ctx context.Context,
	verification *models.Verification,
	profile *models.ScanProfile,
	paths []string,
	notifications []*models.EmailNotification,
) (*models.Scan, error) {
	hrefs := make([]string, 0, len(notifications))
	for _, n := range notifications {
		hrefs = append(hrefs, n.Href)
	}
	if paths == nil {
		paths = []string{}
	}

	body := map[string]any{
		"verification_href":        verification.Href,
		"profile_href":             profile.Href,
		"start_time":               "now",
		"email_notifications_href": hrefs,
		"path_list":                paths,
	}
	res, err := c.create(ctx, collectionScans, body)
	if err != nil {
		return nil, err
	}
	return decodeScan(res)
}
