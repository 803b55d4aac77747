package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidCredentials is returned when the API rejects the email/API key pair.
var ErrInvalidCredentials = errors.New("invalid TagCube API credentials")

// TransportError reports a connectivity failure or a response that is not JSON.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError carries the error strings the API returned for a request.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("TagCube API error (status %d)", e.StatusCode)
	}
	return strings.Join(e.Messages, " ")
}

// AmbiguousResultError is returned when a filter expected to match at most one
// resource matched several.
type AmbiguousResultError struct {
	Collection string
	Filters    url.Values
	Count      int
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("filter %q on resource %q returned %d results, expected at most one",
		e.Filters.Encode(), e.Collection, e.Count)
}

// ResourceCreationError is returned when a POST did not create the resource.
// Messages holds every field-level error the server reported.
type ResourceCreationError struct {
	Collection string
	StatusCode int
	Messages   []string
}

func (e *ResourceCreationError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("failed to create %s: %s", e.Collection, strings.Join(e.Messages, " "))
	}
	return fmt.Sprintf("failed to create %s: expected 201 status code, got %d", e.Collection, e.StatusCode)
}

// UnknownProfileError is returned when no scan profile has the requested name.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("the specified scan profile %q does not exist", e.Name)
}

const cannotScanMessage = `You can't scan the specified domain. This happens in the following cases:

 * The current plan only allows scans to verified domains => Verify your domain
   ownership using TagCube's web UI or the REST API.

 * The domain quota for your plan has been exceeded => Upgrade your plan to be
   able to scan more domains.`

// ScanNotPermittedError is returned when the latest verification for a target
// did not succeed.
type ScanNotPermittedError struct {
	Domain  string
	Port    int
	SSL     bool
	Message string
}

func (e *ScanNotPermittedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scan of %s:%d not permitted", e.Domain, e.Port)
	if e.Message != "" {
		fmt.Fprintf(&b, " (%s)", e.Message)
	}
	b.WriteString("\n\n")
	b.WriteString(cannotScanMessage)
	return b.String()
}
