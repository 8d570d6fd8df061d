package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"content_harvester/internal/domain"
)

var ErrUnknownPlatform = errors.New("unknown platform")

// Result is the outcome of one platform's cycle within a run.
type Result struct {
	Platform string
	Stats    *domain.HarvestStats
	Err      error
}

// Runner drives platform harvesters one after another. Runs are
// serialized: a run started while another is in progress waits for it.
type Runner struct {
	mu         sync.Mutex
	harvesters []PlatformHarvester
	byPlatform map[string]PlatformHarvester
	reporter   Reporter
	logger     *slog.Logger
}

// NewRunner accepts a nil reporter, in which case results are not published.
func NewRunner(harvesters []PlatformHarvester, reporter Reporter, logger *slog.Logger) *Runner {
	byPlatform := make(map[string]PlatformHarvester, len(harvesters))
	for _, h := range harvesters {
		byPlatform[h.Platform()] = h
	}
	return &Runner{
		harvesters: harvesters,
		byPlatform: byPlatform,
		reporter:   reporter,
		logger:     logger.With("component", "runner"),
	}
}

// Platforms lists the configured platforms in run order.
func (r *Runner) Platforms() []string {
	names := make([]string, len(r.harvesters))
	for i, h := range r.harvesters {
		names[i] = h.Platform()
	}
	return names
}

// Select resolves platform names to harvesters, keeping the configured run
// order. An empty selection means every configured platform.
func (r *Runner) Select(platforms []string) ([]PlatformHarvester, error) {
	if len(platforms) == 0 {
		return r.harvesters, nil
	}

	wanted := make(map[string]bool, len(platforms))
	for _, name := range platforms {
		if _, ok := r.byPlatform[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
		}
		wanted[name] = true
	}

	selected := make([]PlatformHarvester, 0, len(wanted))
	for _, h := range r.harvesters {
		if wanted[h.Platform()] {
			selected = append(selected, h)
		}
	}
	return selected, nil
}

// Run harvests the selected platforms in sequence. A failing or panicking
// platform is recorded and the next one still runs. The returned error is
// set only when the selection itself is invalid.
func (r *Runner) Run(ctx context.Context, platforms []string) ([]Result, error) {
	selected, err := r.Select(platforms)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]Result, 0, len(selected))
	for _, h := range selected {
		res := r.runOne(ctx, h)
		r.report(ctx, res)
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, h PlatformHarvester) (res Result) {
	res.Platform = h.Platform()
	logger := r.logger.With("platform", res.Platform)

	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("harvest panicked: %v", rec)
		}
		if res.Stats == nil {
			res.Stats = &domain.HarvestStats{Platform: res.Platform}
		}
		if res.Err != nil {
			res.Stats.Error = res.Err.Error()
			logger.Error("harvest failed", "error", res.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Stats, res.Err = h.Harvest(ctx)
	return res
}

func (r *Runner) report(ctx context.Context, res Result) {
	if r.reporter == nil {
		return
	}
	if err := r.reporter.Publish(ctx, res.Stats); err != nil {
		r.logger.Warn("failed to publish harvest report", "platform", res.Platform, "error", err)
	}
}

// Failed reports whether any result in rs failed.
func Failed(rs []Result) bool {
	for _, r := range rs {
		if r.Err != nil || (r.Stats != nil && r.Stats.Failed()) {
			return true
		}
	}
	return false
}
