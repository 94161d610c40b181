// Package jobs holds the scheduled maintenance work of the trip service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"drive-hub/internal/general/logger"
	"drive-hub/internal/ports"
	"drive-hub/internal/tripstate"

	"github.com/robfig/cron/v3"
)

// DraftSweeper periodically purges expired trip drafts from the
// in-memory store and from the audit table.
type DraftSweeper struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	drafts   *tripstate.DraftStore
	repo     ports.TripDraftRepository
	interval time.Duration
	cron     *cron.Cron
}

// NewDraftSweeper creates a sweeper that runs every interval.
func NewDraftSweeper(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	drafts *tripstate.DraftStore,
	repo ports.TripDraftRepository,
	interval time.Duration,
) *DraftSweeper {
	return &DraftSweeper{
		logger:   logger,
		uow:      uow,
		drafts:   drafts,
		repo:     repo,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start schedules the sweep. Returns an error only when the schedule
// spec cannot be parsed.
func (sweeper *DraftSweeper) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", sweeper.interval)
	if _, err := sweeper.cron.AddFunc(spec, func() { sweeper.sweep(ctx) }); err != nil {
		return err
	}
	sweeper.cron.Start()

	sweeper.logger.Info(ctx, "draft_sweeper_started", "Draft sweeper scheduled", map[string]any{
		"interval": sweeper.interval.String(),
	})
	return nil
}

// Stop halts the schedule and waits for a running sweep to return.
func (sweeper *DraftSweeper) Stop() {
	<-sweeper.cron.Stop().Done()
}

func (sweeper *DraftSweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	removed := sweeper.drafts.Sweep(now)

	var purged int64
	err := sweeper.uow.WithinTx(ctx, func(txCtx context.Context) error {
		n, err := sweeper.repo.DeleteExpiredBefore(txCtx, now)
		if err != nil {
			return err
		}
		purged = n
		return nil
	})
	if err != nil {
		sweeper.logger.Error(ctx, "draft_sweep_failed", "Failed to purge expired drafts from storage", err, map[string]any{
			"memory_removed": removed,
		})
		return
	}

	if removed > 0 || purged > 0 {
		sweeper.logger.Info(ctx, "draft_sweep_done", "Expired drafts purged", map[string]any{
			"memory_removed": removed,
			"rows_purged":    purged,
		})
	}
}
