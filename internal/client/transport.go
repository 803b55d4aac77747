package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"
)

// Sender performs one HTTP round trip against the REST API and returns the
// status code together with the JSON body. Implementations map an
// unauthorized response to ErrInvalidCredentials, a non-JSON body or a
// connectivity failure to *TransportError, and server-reported error lists to
// *APIError.
//
//go:generate mockgen -source=transport.go -destination=mocks/mocks.go -package=mocks Sender
type Sender interface {
	Send(ctx context.Context, method, url string, body any) (int, json.RawMessage, error)
}

var errNotJSON = errors.New("TagCube REST API did not return JSON, if this issue persists please contact support@tagcube.io")

// DefaultHTTPClient returns an http.Client with dial, TLS and overall timeouts.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}
}

// HTTPTransport is the Sender used against the live API. Every request carries
// HTTP basic auth, a JSON content type and the client user agent.
type HTTPTransport struct {
	email      string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPTransport builds a transport authenticating as email/apiKey.
func NewHTTPTransport(email, apiKey string, httpClient *http.Client, logger *slog.Logger) *HTTPTransport {
	if httpClient == nil {
		httpClient = DefaultHTTPClient(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPTransport{
		email:      email,
		apiKey:     apiKey,
		userAgent:  "TagCubeClient " + Version,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Send implements Sender.
func (t *HTTPTransport) Send(ctx context.Context, method, url string, body any) (int, json.RawMessage, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return 0, nil, fmt.Errorf("invalid HTTP method: %q", method)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: url, Err: err}
	}
	req.SetBasicAuth(t.email, t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	t.logger.Debug("sending request", "method", method, "url", url)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, nil, ErrInvalidCredentials
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Method: method, URL: url, Err: err}
	}
	if !json.Valid(data) {
		return resp.StatusCode, nil, &TransportError{Method: method, URL: url, Err: errNotJSON}
	}

	if t.logger.Enabled(ctx, slog.LevelDebug) {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "    "); err == nil {
			t.logger.Debug(fmt.Sprintf("Received %d HTTP response from the wire:\n%s", resp.StatusCode, pretty.String()))
		}
	}

	if apiErr := parseAPIErrors(resp.StatusCode, data); apiErr != nil {
		return resp.StatusCode, data, apiErr
	}

	return resp.StatusCode, json.RawMessage(data), nil
}

// parseAPIErrors extracts server-reported errors. Two shapes are recognised:
//
//	400: {"scans": {"__all__": ["Not a verified domain..."]}}
//	any: {"error": ["The domain foo.com already exists."]}
//
// It returns nil when the body carries no error strings.
func parseAPIErrors(status int, data []byte) *APIError {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}

	var messages []string
	if status == http.StatusBadRequest {
		for _, key := range sortedKeys(obj) {
			messages = append(messages, flattenMessages(obj[key])...)
		}
	} else if raw, ok := obj["error"]; ok && len(obj) == 1 {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			messages = list
		}
	}

	if len(messages) == 0 {
		return nil
	}
	return &APIError{StatusCode: status, Messages: messages}
}

// flattenMessages accepts a field map of string lists, a string list or a
// single string.
func flattenMessages(raw json.RawMessage) []string {
	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, fields[k]...)
		}
		return out
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
