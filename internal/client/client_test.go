package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hakim/tagcube/internal/logger"
)

// =============================================================================
// Scan Orchestration Test Suite
// =============================================================================
// Runs the get-or-create workflow end to end against an in-memory API so the
// tests can count exactly which resources were created.

const (
	testEmail  = "foo@bar.com"
	testAPIKey = "f364b098-0fb3-4178-a45b-883f389ad294"
)

type OrchestrationSuite struct {
	suite.Suite
	api    *fakeAPI
	client *Client
	ctx    context.Context
}

func TestOrchestrationSuite(t *testing.T) {
	suite.Run(t, new(OrchestrationSuite))
}

func (s *OrchestrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.api = newFakeAPI(testEmail, testAPIKey)
	s.api.verificationSuccess = true
	s.api.seed("profiles", map[string]any{"id": 1, "href": "/1.0/profiles/1", "name": "full_audit"})
	s.api.seed("profiles", map[string]any{"id": 2, "href": "/1.0/profiles/2", "name": "fast_scan"})

	s.client = s.newClient(testAPIKey)
}

func (s *OrchestrationSuite) TearDownTest() {
	s.api.Close()
}

func (s *OrchestrationSuite) newClient(apiKey string) *Client {
	c, err := New(
		Config{Email: testEmail, APIKey: apiKey, RootURL: s.api.server.URL},
		WithLogger(logger.Discard()),
	)
	s.Require().NoError(err)
	return c
}

// =============================================================================
// Authentication
// =============================================================================

func (s *OrchestrationSuite) TestAuthCredentials() {
	s.Run("valid credentials", func() {
		ok, err := s.client.TestAuthCredentials(s.ctx)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("invalid credentials are not an error", func() {
		ok, err := s.newClient("wrong").TestAuthCredentials(s.ctx)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("current user", func() {
		user, err := s.client.CurrentUser(s.ctx)
		s.Require().NoError(err)
		s.Equal(testEmail, user.Email)
	})

	s.Run("current user with invalid credentials", func() {
		_, err := s.newClient("wrong").CurrentUser(s.ctx)
		s.ErrorIs(err, ErrInvalidCredentials)
	})
}

// =============================================================================
// QuickScan
// =============================================================================

func (s *OrchestrationSuite) TestQuickScanCreatesMissingResources() {
	scan, err := s.client.QuickScan(s.ctx, ScanRequest{TargetURL: "http://target.com/"})
	s.Require().NoError(err)
	s.NotZero(scan.ID)

	s.Equal(1, s.api.postCount("domains"))
	s.Equal(1, s.api.postCount("verifications"))
	s.Equal(1, s.api.postCount("notifications/email"))
	s.Equal(1, s.api.postCount("scans"))

	s.Require().Len(s.api.scanBodies, 1)
	body := s.api.scanBodies[0]
	s.Equal("/1.0/profiles/1", body["profile_href"])
	s.Equal("now", body["start_time"])
	s.Equal([]any{"/"}, body["path_list"])
	s.Contains(body["verification_href"], "/1.0/verifications/")

	notifications := body["email_notifications_href"].([]any)
	s.Require().Len(notifications, 1)

	n, err := s.client.GetEmailNotification(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Require().NotNil(n)
	s.Equal(n.Href, notifications[0])
	s.Equal("None", n.FirstName)
	s.Equal(DefaultDescription, n.Description)
}

func (s *OrchestrationSuite) TestQuickScanReusesExistingResources() {
	s.api.seed("domains", map[string]any{"id": 2, "href": "/1.0/domains/2", "domain": "target.com"})
	s.api.seed("verifications", verificationFixture(6, 2, 443, true, true))
	s.api.seed("notifications/email", map[string]any{"id": 4, "href": "/1.0/notifications/email/4", "email": "other@example.com"})

	scan, err := s.client.QuickScan(s.ctx, ScanRequest{
		TargetURL:   "https://target.com/",
		EmailNotify: "other@example.com",
		ScanProfile: "fast_scan",
		PathList:    []string{"/", "/admin"},
	})
	s.Require().NoError(err)
	s.NotZero(scan.ID)

	s.Equal(0, s.api.postCount("domains"))
	s.Equal(0, s.api.postCount("verifications"))
	s.Equal(0, s.api.postCount("notifications/email"))
	s.Equal(1, s.api.postCount("scans"))

	body := s.api.scanBodies[0]
	s.Equal("/1.0/verifications/6", body["verification_href"])
	s.Equal("/1.0/profiles/2", body["profile_href"])
	s.Equal([]any{"/1.0/notifications/email/4"}, body["email_notifications_href"])
	s.Equal([]any{"/", "/admin"}, body["path_list"])
}

func (s *OrchestrationSuite) TestQuickScanUnknownProfile() {
	_, err := s.client.QuickScan(s.ctx, ScanRequest{TargetURL: "http://target.com/", ScanProfile: "not_exists"})

	var unknown *UnknownProfileError
	s.Require().ErrorAs(err, &unknown)
	s.Equal(0, s.api.postCount("domains"))
	s.Equal(0, s.api.postCount("verifications"))
	s.Equal(0, s.api.postCount("notifications/email"))
	s.Equal(0, s.api.postCount("scans"))
}

func (s *OrchestrationSuite) TestQuickScanFailedVerificationIsNotPermitted() {
	s.api.verificationSuccess = false

	_, err := s.client.QuickScan(s.ctx, ScanRequest{TargetURL: "http://target.com/"})

	var denied *ScanNotPermittedError
	s.Require().ErrorAs(err, &denied)
	s.Equal("target.com", denied.Domain)
	s.Equal(80, denied.Port)
	s.Contains(err.Error(), "domain quota for your plan has been exceeded")
	s.Equal(1, s.api.postCount("verifications"))
	s.Equal(0, s.api.postCount("notifications/email"))
	s.Equal(0, s.api.postCount("scans"))
}

func (s *OrchestrationSuite) TestQuickScanUsesLatestVerification() {
	s.api.seed("domains", map[string]any{"id": 2, "href": "/1.0/domains/2", "domain": "target.com"})
	s.api.seed("verifications", verificationFixture(5, 2, 80, false, false))
	s.api.seed("verifications", verificationFixture(3, 2, 80, false, true))

	_, err := s.client.QuickScan(s.ctx, ScanRequest{TargetURL: "http://target.com/"})

	var denied *ScanNotPermittedError
	s.Require().ErrorAs(err, &denied)
	s.Equal(0, s.api.postCount("verifications"))
	s.Equal(0, s.api.postCount("scans"))
}

func (s *OrchestrationSuite) TestQuickScanTwiceCreatesTwoScans() {
	req := ScanRequest{TargetURL: "http://target.com/"}

	first, err := s.client.QuickScan(s.ctx, req)
	s.Require().NoError(err)
	second, err := s.client.QuickScan(s.ctx, req)
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)
	s.Equal(2, s.api.postCount("scans"))
	s.Equal(1, s.api.postCount("domains"))
	s.Equal(1, s.api.postCount("verifications"))
	s.Equal(1, s.api.postCount("notifications/email"))
}

// =============================================================================
// Verification gate
// =============================================================================

func (s *OrchestrationSuite) TestVerifyTargetDoesNotDuplicateDomains() {
	s.Run("successful verification", func() {
		_, err := s.client.VerifyTarget(s.ctx, "https://a.com/")
		s.Require().NoError(err)
		_, err = s.client.VerifyTarget(s.ctx, "https://a.com/other")
		s.Require().NoError(err)
		s.Equal(1, s.api.postCount("domains"))
	})

	s.Run("failed verification is not retried", func() {
		s.api.verificationSuccess = false
		_, err := s.client.VerifyTarget(s.ctx, "http://b.com:8080/")
		s.Error(err)
		_, err = s.client.VerifyTarget(s.ctx, "http://b.com:8080/")
		s.Error(err)

		s.Equal(2, s.api.postCount("domains"))
		s.Equal(2, s.api.postCount("verifications"))
	})
}

func (s *OrchestrationSuite) TestVerifyTargetReturnsResources() {
	verified, err := s.client.VerifyTarget(s.ctx, "https://a.com:8443/")
	s.Require().NoError(err)
	s.Equal("a.com", verified.Domain.Domain)
	s.Equal(DefaultDescription, verified.Domain.Description)
	s.Equal(8443, verified.Verification.Port)
	s.True(verified.Verification.SSL)
	s.True(verified.Verification.Success)
}

// =============================================================================
// Notifications and scans
// =============================================================================

func (s *OrchestrationSuite) TestEmailNotificationRoundTrip() {
	created, err := s.client.AddEmailNotification(s.ctx, NotificationRequest{
		Email:       "abc@def.com",
		FirstName:   "Andres",
		LastName:    "Riancho",
		Description: "Notification email",
	})
	s.Require().NoError(err)

	found, err := s.client.GetEmailNotification(s.ctx, "abc@def.com")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(created.ID, found.ID)
	s.Equal(created.Href, found.Href)
	s.Equal("Andres", found.FirstName)
}

func (s *OrchestrationSuite) TestGetScan() {
	launched, err := s.client.QuickScan(s.ctx, ScanRequest{TargetURL: "http://target.com/"})
	s.Require().NoError(err)

	scan, err := s.client.GetScan(s.ctx, launched.ID)
	s.Require().NoError(err)
	s.Equal(launched.ID, scan.ID)
	s.Equal(launched.Href, scan.Href)
	s.Equal("now", scan.Raw.String("start_time"))
}
