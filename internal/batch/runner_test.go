package batch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/models"
	"github.com/hakim/tagcube/internal/scope"
)

// fakeLauncher records every request and fails for roots listed in failures.
type fakeLauncher struct {
	mu       sync.Mutex
	nextID   int64
	requests []client.ScanRequest
	failures map[string]error
	panics   map[string]bool
}

func (f *fakeLauncher) QuickScan(_ context.Context, req client.ScanRequest) (*models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.panics[req.TargetURL] {
		panic("boom")
	}
	if err := f.failures[req.TargetURL]; err != nil {
		return nil, err
	}
	f.nextID++
	return &models.Scan{ID: f.nextID, Href: "/1.0/scans/1"}, nil
}

func (f *fakeLauncher) targets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.TargetURL)
	}
	return out
}

type RunnerSuite struct {
	suite.Suite
	ctx      context.Context
	launcher *fakeLauncher
	plan     *Plan
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.ctx = context.Background()
	s.launcher = &fakeLauncher{failures: map[string]error{}, panics: map[string]bool{}}

	input := "http://a.com/x\nhttp://b.com/y\nhttp://c.com/z\nhttp://a.com/w\n"
	plan, err := GroupURLs(strings.NewReader(input), nil)
	s.Require().NoError(err)
	s.plan = plan
}

// =============================================================================
// Abort on first error
// =============================================================================

func (s *RunnerSuite) TestLaunchesEveryGroupWithItsPaths() {
	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{ScanProfile: "fast_scan", EmailNotify: "x@y.com"})
	s.Require().NoError(err)

	s.Equal(3, summary.Launched)
	s.Zero(summary.Failed)
	s.Equal([]string{"http://a.com:80/", "http://b.com:80/", "http://c.com:80/"}, s.launcher.targets())

	first := s.launcher.requests[0]
	s.Equal([]string{"/w", "/x"}, first.PathList)
	s.Equal("fast_scan", first.ScanProfile)
	s.Equal("x@y.com", first.EmailNotify)
}

func (s *RunnerSuite) TestStopsAtFirstFailure() {
	s.launcher.failures["http://b.com:80/"] = &client.ScanNotPermittedError{Domain: "b.com", Port: 80}

	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{})
	s.Require().Error(err)

	var notPermitted *client.ScanNotPermittedError
	s.ErrorAs(err, &notPermitted)
	s.Equal(1, summary.Launched)
	s.Equal(1, summary.Failed)
	s.Equal([]string{"http://a.com:80/", "http://b.com:80/"}, s.launcher.targets())
}

func (s *RunnerSuite) TestEmptyPlanIsAnError() {
	_, err := Run(s.ctx, s.launcher, &Plan{}, RunConfig{})
	s.ErrorIs(err, ErrNoScans)
}

// =============================================================================
// Continue on error
// =============================================================================

func (s *RunnerSuite) TestContinueOnErrorLaunchesRemainingGroups() {
	s.launcher.failures["http://b.com:80/"] = errors.New("quota exceeded")

	var launched, failed []string
	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{
		ContinueOnError: true,
		OnLaunch:        func(g *Group, _ *models.Scan) { launched = append(launched, g.Domain) },
		OnFailure:       func(g *Group, _ error) { failed = append(failed, g.Domain) },
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "quota exceeded")

	s.Equal(2, summary.Launched)
	s.Equal(1, summary.Failed)
	s.Equal([]string{"a.com", "c.com"}, launched)
	s.Equal([]string{"b.com"}, failed)
}

func (s *RunnerSuite) TestConcurrentRunReportsInGroupOrder() {
	s.launcher.failures["http://c.com:80/"] = errors.New("nope")

	var order []string
	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{
		ContinueOnError: true,
		Concurrency:     3,
		OnLaunch:        func(g *Group, _ *models.Scan) { order = append(order, g.Domain) },
		OnFailure:       func(g *Group, _ error) { order = append(order, "!"+g.Domain) },
	})
	s.Require().Error(err)

	s.Equal([]string{"a.com", "b.com", "!c.com"}, order)
	s.Equal(2, summary.Launched)
	s.Len(s.launcher.targets(), 3)
}

func (s *RunnerSuite) TestPanickingLaunchIsContained() {
	s.launcher.panics["http://a.com:80/"] = true

	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{ContinueOnError: true})
	s.Require().Error(err)
	s.Contains(err.Error(), "panicked")
	s.Equal(2, summary.Launched)
	s.Equal(1, summary.Failed)
}

// =============================================================================
// Scope
// =============================================================================

func (s *RunnerSuite) TestOutOfScopeGroupAbortsBeforeAnyLaunch() {
	cfg := RunConfig{Scope: &scope.Config{AllowedDomains: []string{"a.com", "b.com"}}}

	_, err := Run(s.ctx, s.launcher, s.plan, cfg)
	s.ErrorIs(err, scope.ErrOutOfScope)
	s.Empty(s.launcher.targets())
}

func (s *RunnerSuite) TestOutOfScopeGroupFailsAloneWhenContinuing() {
	cfg := RunConfig{
		ContinueOnError: true,
		Scope:           &scope.Config{AllowedDomains: []string{"a.com", "b.com"}},
	}

	summary, err := Run(s.ctx, s.launcher, s.plan, cfg)
	s.ErrorIs(err, scope.ErrOutOfScope)
	s.Equal(2, summary.Launched)
	s.Equal(1, summary.Failed)
	s.Equal([]string{"http://a.com:80/", "http://b.com:80/"}, s.launcher.targets())
}

// =============================================================================
// Webhook
// =============================================================================

func (s *RunnerSuite) TestNotifierPostsSummary() {
	var got summaryPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	summary, err := Run(s.ctx, s.launcher, s.plan, RunConfig{})
	s.Require().NoError(err)

	n := &Notifier{WebhookURL: srv.URL}
	s.Require().NoError(n.Send(s.ctx, summary, 2))

	s.Equal(summary.BatchID.String(), got.BatchID)
	s.Equal(3, got.Launched)
	s.Equal(2, got.Skipped)
	s.Len(got.Scans, 3)
	s.Equal("http://a.com:80/", got.Scans[0].RootURL)
}

func (s *RunnerSuite) TestNotifierWithoutURLIsNoop() {
	var n *Notifier
	s.NoError(n.Send(s.ctx, &Summary{}, 0))
	s.NoError((&Notifier{}).Send(s.ctx, &Summary{}, 0))
}

func (s *RunnerSuite) TestNotifierReportsNon2xx() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := (&Notifier{WebhookURL: srv.URL}).Send(s.ctx, &Summary{}, 0)
	s.ErrorContains(err, "502")
}
