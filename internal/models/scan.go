package models

import (
	"time"

	"github.com/google/uuid"
)

// Scan is a scan resource created on the service. Raw keeps every field the
// server returned, including ones this client does not model.
type Scan struct {
	ID                     int64    `json:"id"`
	Href                   string   `json:"href"`
	VerificationHref       string   `json:"verification_href,omitempty"`
	ProfileHref            string   `json:"profile_href,omitempty"`
	PathList               []string `json:"path_list,omitempty"`
	EmailNotificationsHref []string `json:"email_notifications_href,omitempty"`
	StartTime              string   `json:"start_time,omitempty"`

	Raw Resource `json:"-"`
}

// LaunchRecord is the local record of a scan launched by this CLI.
type LaunchRecord struct {
	ID         string    `json:"id"`
	ScanID     int64     `json:"scan_id"`
	ScanHref   string    `json:"scan_href"`
	TargetURL  string    `json:"target_url"`
	Domain     string    `json:"domain"`
	Profile    string    `json:"profile"`
	Paths      []string  `json:"paths"`
	Notify     string    `json:"notify,omitempty"`
	BatchID    string    `json:"batch_id,omitempty"`
	LaunchedAt time.Time `json:"launched_at"`
}

// NewLaunchRecord creates a launch record for a freshly created scan.
func NewLaunchRecord(scan *Scan, targetURL, domain, profile string, paths []string) *LaunchRecord {
	return &LaunchRecord{
		ID:         uuid.New().String(),
		ScanID:     scan.ID,
		ScanHref:   scan.Href,
		TargetURL:  targetURL,
		Domain:     domain,
		Profile:    profile,
		Paths:      append([]string{}, paths...),
		LaunchedAt: time.Now(),
	}
}
