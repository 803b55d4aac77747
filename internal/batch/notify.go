package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier posts a batch summary to a webhook once a run finishes.
type Notifier struct {
	WebhookURL string // if empty, no notifications
	HTTPClient *http.Client
}

type launchEntry struct {
	RootURL string   `json:"root_url"`
	Paths   []string `json:"paths"`
	ScanID  int64    `json:"scan_id,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type summaryPayload struct {
	BatchID        string        `json:"batch_id"`
	Launched       int           `json:"launched"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped_lines"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Scans          []launchEntry `json:"scans"`
}

// Send posts summary as JSON. It is a no-op when WebhookURL is empty. Errors
// are meant to be reported as warnings; the scans have already launched.
func (n *Notifier) Send(ctx context.Context, summary *Summary, skipped int) error {
	if n == nil || n.WebhookURL == "" || summary == nil {
		return nil
	}

	payload := summaryPayload{
		BatchID:        summary.BatchID.String(),
		Launched:       summary.Launched,
		Failed:         summary.Failed,
		Skipped:        skipped,
		ElapsedSeconds: summary.Elapsed.Seconds(),
		Scans:          make([]launchEntry, 0, len(summary.Results)),
	}
	for _, res := range summary.Results {
		entry := launchEntry{RootURL: res.Group.RootURL(), Paths: res.Group.Paths()}
		if res.Scan != nil {
			entry.ScanID = res.Scan.ID
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		payload.Scans = append(payload.Scans, entry)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := n.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}
	return nil
}
