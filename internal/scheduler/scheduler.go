// Package scheduler wires up the cron job that periodically triggers a
// full reconciliation cycle.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gorgaloro/job-automation-sub001/internal/reconciler"
)

// Scheduler wraps robfig/cron and manages the reconciliation loop.
type Scheduler struct {
	cron   *cron.Cron
	worker *reconciler.Worker
	log    *zap.Logger
	spec   string // cron spec, e.g. "@every 12h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(worker *reconciler.Worker, log *zap.Logger, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		worker: worker,
		log:    log,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so analytics exist without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	// Run immediately on startup (non-blocking).
	go s.runCycle(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.worker.Run(ctx); err != nil {
		s.log.Error("reconciliation cycle failed", zap.Error(err))
	}
}
