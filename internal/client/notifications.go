package client

import (
	"context"
	"net/url"

	"github.com/hakim/tagcube/internal/models"
)

// NotificationRequest describes an email notification to create. Empty name
// fields default to "None" and an empty description to DefaultDescription.
type NotificationRequest struct {
	Email       string
	FirstName   string
	LastName    string
	Description string
}

// GetEmailNotification returns the notification for email, or nil.
func (c *Client) GetEmailNotification(ctx context.Context, email string) (*models.EmailNotification, error) {
	res, err := c.filterOne(ctx, collectionNotifications, url.Values{"email": {email}})
	if err != nil || res == nil {
		return nil, err
	}
	var n models.EmailNotification
	if err := res.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// AddEmailNotification creates a notification target.
func (c *Client) AddEmailNotification(ctx context.Context, req NotificationRequest) (*models.EmailNotification, error) {
	body := map[string]any{
		"email":       req.Email,
		"first_name":  valueOr(req.FirstName, "None"),
		"last_name":   valueOr(req.LastName, "None"),
		"description": valueOr(req.Description, DefaultDescription),
	}
	res, err := c.create(ctx, collectionNotifications, body)
	if err != nil {
		return nil, err
	}
	var n models.EmailNotification
	if err := res.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ResolveEmailNotification returns the notification for email, creating it
// with default names when absent.
func (c *Client) ResolveEmailNotification(ctx context.Context, email string) (*models.EmailNotification, error) {
	n, err := c.GetEmailNotification(ctx, email)
	if err != nil || n != nil {
		return n, err
	}
	c.logger.Debug("email notification not found, creating it", "email", email)
	return c.AddEmailNotification(ctx, NotificationRequest{Email: email})
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
