package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

// SweepJobParams configure the flash-sale sweep.
type SweepJobParams struct {
	Logger     *logger.Logger
	FlashSales FlashSaleSweeper
}

// NewSweepJob builds the safety net behind the one-shot timers. Every cycle
// it finds campaigns whose window is open but whose prices never flipped,
// and campaigns whose window closed with prices still flipped, and applies
// the same idempotent handlers the timers use.
func NewSweepJob(params SweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.FlashSales == nil {
		return nil, fmt.Errorf("flash sale sweeper required")
	}
	return &sweepJob{
		logg:       params.Logger,
		flashSales: params.FlashSales,
		now:        time.Now,
	}, nil
}

type sweepJob struct {
	logg       *logger.Logger
	flashSales FlashSaleSweeper
	now        func() time.Time
}

func (j *sweepJob) Name() string { return "flash-sale-sweep" }

func (j *sweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	started, err := j.startMissed(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	ended, err := j.endStale(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}

	if started > 0 || ended > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"started": started, "ended": ended})
		j.logg.Warn(logCtx, "sweep repaired campaign state")
	}
	return multierr.Combine(errs...)
}

func (j *sweepJob) startMissed(ctx context.Context, now time.Time) (int, error) {
	ids, err := j.flashSales.CurrentUnstamped(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("query unstamped campaigns: %w", err)
	}
	count := 0
	var errs []error
	for _, id := range ids {
		if err := j.flashSales.ApplyCampaignStart(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("start campaign %s: %w", id, err))
			continue
		}
		count++
	}
	return count, multierr.Combine(errs...)
}

func (j *sweepJob) endStale(ctx context.Context, now time.Time) (int, error) {
	ids, err := j.flashSales.EndedStillStamped(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("query stale campaigns: %w", err)
	}
	count := 0
	var errs []error
	for _, id := range ids {
		if err := j.flashSales.ApplyCampaignEnd(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("end campaign %s: %w", id, err))
			continue
		}
		count++
	}
	return count, multierr.Combine(errs...)
}
