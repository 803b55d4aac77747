package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/logger"
	"github.com/hakim/tagcube/internal/models"
	"github.com/hakim/tagcube/internal/scope"
)

// ErrNoScans is returned when a batch file contains no scannable URL.
var ErrNoScans = errors.New("batch: no scannable URLs found")

// Launcher starts one scan. *client.Client satisfies it.
type Launcher interface {
	QuickScan(ctx context.Context, req client.ScanRequest) (*models.Scan, error)
}

// RunConfig controls how a Plan is launched.
type RunConfig struct {
	EmailNotify string
	ScanProfile string

	// ContinueOnError launches every group and reports failures at the end.
	// When false the run stops at the first failure.
	ContinueOnError bool

	// Concurrency bounds in-flight launches when ContinueOnError is set.
	// Values <= 1 launch sequentially.
	Concurrency int

	// Scope, when non-nil and non-empty, restricts which domains may be
	// launched.
	Scope *scope.Config

	Logger *slog.Logger

	// OnLaunch and OnFailure fire in group order once each launch settles.
	OnLaunch  func(g *Group, scan *models.Scan)
	OnFailure func(g *Group, err error)
}

// Result is the outcome of launching one group.
type Result struct {
	Group *Group
	Scan  *models.Scan
	Err   error
}

// Summary describes a finished batch run.
type Summary struct {
	BatchID  uuid.UUID
	Results  []Result
	Launched int
	Failed   int
	Elapsed  time.Duration
}

// Run launches one scan per group of plan. In abort mode every group is
// checked against the scope before the first launch; with ContinueOnError an
// out-of-scope group is reported as failed and the rest still launch.
func Run(ctx context.Context, launcher Launcher, plan *Plan, cfg RunConfig) (*Summary, error) {
	if plan == nil || len(plan.Groups) == 0 {
		return nil, ErrNoScans
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	if !cfg.ContinueOnError && cfg.hasScope() {
		for _, g := range plan.Groups {
			if err := cfg.Scope.ValidateHost(g.Domain); err != nil {
				return nil, fmt.Errorf("batch: %s: %w", g.RootURL(), err)
			}
		}
	}

	start := time.Now()
	summary := &Summary{BatchID: uuid.New()}
	log.Debug("launching batch", "batch_id", summary.BatchID, "scans", len(plan.Groups),
		"continue_on_error", cfg.ContinueOnError, "concurrency", cfg.Concurrency)

	var err error
	switch {
	case !cfg.ContinueOnError:
		err = runAbortOnError(ctx, launcher, plan.Groups, cfg, summary)
	case cfg.Concurrency > 1:
		err = runConcurrent(ctx, launcher, plan.Groups, cfg, summary)
	default:
		err = runSequential(ctx, launcher, plan.Groups, cfg, summary)
	}

	summary.Elapsed = time.Since(start)
	return summary, err
}

func runAbortOnError(ctx context.Context, launcher Launcher, groups []*Group, cfg RunConfig, summary *Summary) error {
	for _, g := range groups {
		res := launchIsolated(ctx, launcher, g, cfg)
		summary.record(res, cfg)
		if res.Err != nil {
			return fmt.Errorf("batch: launching scan to %s: %w", g.RootURL(), res.Err)
		}
	}
	return nil
}

func runSequential(ctx context.Context, launcher Launcher, groups []*Group, cfg RunConfig, summary *Summary) error {
	var errs []error
	for _, g := range groups {
		res := launchIsolated(ctx, launcher, g, cfg)
		summary.record(res, cfg)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", g.RootURL(), res.Err))
		}
	}
	return errors.Join(errs...)
}

func runConcurrent(ctx context.Context, launcher Launcher, groups []*Group, cfg RunConfig, summary *Summary) error {
	mapper := iter.Mapper[*Group, Result]{MaxGoroutines: cfg.Concurrency}
	results := mapper.Map(groups, func(g **Group) Result {
		return launchIsolated(ctx, launcher, *g, cfg)
	})

	var errs []error
	for _, res := range results {
		summary.record(res, cfg)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Group.RootURL(), res.Err))
		}
	}
	return errors.Join(errs...)
}

// launchIsolated launches a single group, converting a panic into an error
// so one bad launch cannot take down the rest of the batch.
func launchIsolated(ctx context.Context, launcher Launcher, g *Group, cfg RunConfig) (res Result) {
	res.Group = g
	defer func() {
		if r := recover(); r != nil {
			res.Scan = nil
			res.Err = fmt.Errorf("launch to %s panicked: %v", g.RootURL(), r)
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if cfg.hasScope() {
		if err := cfg.Scope.ValidateHost(g.Domain); err != nil {
			res.Err = err
			return res
		}
	}
	res.Scan, res.Err = launcher.QuickScan(ctx, client.ScanRequest{
		TargetURL:   g.RootURL(),
		EmailNotify: cfg.EmailNotify,
		ScanProfile: cfg.ScanProfile,
		PathList:    g.Paths(),
	})
	return res
}

func (cfg RunConfig) hasScope() bool {
	return cfg.Scope != nil && !cfg.Scope.Empty()
}

func (s *Summary) record(res Result, cfg RunConfig) {
	s.Results = append(s.Results, res)
	if res.Err != nil {
		s.Failed++
		if cfg.OnFailure != nil {
			cfg.OnFailure(res.Group, res.Err)
		}
		return
	}
	s.Launched++
	if cfg.OnLaunch != nil {
		cfg.OnLaunch(res.Group, res.Scan)
	}
}
