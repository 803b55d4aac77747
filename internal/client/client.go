// Package client drives the TagCube REST API: it resolves or creates the
// domain, verification, profile and notification resources a scan needs and
// then launches the scan.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hakim/tagcube/internal/logger"
	"github.com/hakim/tagcube/internal/models"
)

// Version is reported in the User-Agent header.
const Version = "0.4.0"

const (
	DefaultRootURL    = "https://api.tagcube.io/"
	DefaultAPIVersion = "1.0"

	// DefaultDescription is attached to resources this client creates.
	DefaultDescription = "Created by TagCube REST API client"
)

// Remote collections, relative to /{version}/.
const (
	collectionDomains       = "domains"
	collectionVerifications = "verifications"
	collectionProfiles      = "profiles"
	collectionNotifications = "notifications/email"
	collectionScans         = "scans"
	pathCurrentUser         = "/users/~"
)

// Config holds everything needed to talk to the API.
type Config struct {
	Email      string
	APIKey     string
	RootURL    string
	APIVersion string
	Timeout    time.Duration
	Verbose    bool
}

// Client is a synchronous TagCube API client. It holds no mutable state after
// construction.
type Client struct {
	email      string
	rootURL    string
	apiVersion string
	sender     Sender
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(c *Client)

// WithSender replaces the HTTP transport, mainly for tests.
func WithSender(sender Sender) Option {
	return func(c *Client) {
		c.sender = sender
	}
}

// WithLogger sets the logger used by the client and its default transport.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Email == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("client: email and API key are required")
	}

	rootURL := cfg.RootURL
	if rootURL == "" {
		rootURL = DefaultRootURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	c := &Client{
		email:      cfg.Email,
		rootURL:    strings.TrimRight(rootURL, "/") + "/",
		apiVersion: apiVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.New(cfg.Verbose, nil)
	}
	if c.sender == nil {
		c.sender = NewHTTPTransport(cfg.Email, cfg.APIKey, DefaultHTTPClient(cfg.Timeout), c.logger)
	}
	return c, nil
}

// Email returns the address the client authenticates as.
func (c *Client) Email() string {
	return c.email
}

// TestAuthCredentials reports whether the configured credentials are accepted.
// Rejected credentials are not an error; transport failures are.
func (c *Client) TestAuthCredentials(ctx context.Context) (bool, error) {
	code, _, err := c.sender.Send(ctx, http.MethodGet, c.fullURL(pathCurrentUser), nil)
	if errors.Is(err, ErrInvalidCredentials) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return code == http.StatusOK, nil
}

// CurrentUser returns the user owning the credentials.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	res, err := c.get(ctx, c.fullURL(pathCurrentUser))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := res.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetScan fetches the current state of a scan.
func (c *Client) GetScan(ctx context.Context, scanID int64) (*models.Scan, error) {
	res, err := c.get(ctx, c.fullURL(fmt.Sprintf("/%s/%d", collectionScans, scanID)))
	if err != nil {
		return nil, err
	}
	return decodeScan(res)
}

// fullURL joins the root URL, API version and lastPart.
func (c *Client) fullURL(lastPart string) string {
	return c.rootURL + c.apiVersion + lastPart
}

// apiPath builds the href form of a resource, e.g. /1.0/domains/2.
func (c *Client) apiPath(collection string, id int64) string {
	return fmt.Sprintf("/%s/%s/%d", c.apiVersion, collection, id)
}

func decodeScan(res models.Resource) (*models.Scan, error) {
	var scan models.Scan
	if err := res.Decode(&scan); err != nil {
		return nil, err
	}
	scan.Raw = res
	return &scan, nil
}
