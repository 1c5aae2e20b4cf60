package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler fires the reconciliation pipeline once per day at a fixed
// UTC hour. Manual triggers go straight to the Processor; the run guard
// makes the two sources mutually exclusive.
type Scheduler struct {
	processor *Processor
	hourUTC   int
	log       *zap.Logger
}

// NewScheduler creates a daily scheduler for the given processor
func NewScheduler(processor *Processor, hourUTC int, log *zap.Logger) *Scheduler {
	return &Scheduler{processor: processor, hourUTC: hourUTC, log: log}
}

// Start blocks until the context is cancelled, running the pipeline at
// each scheduled instant. Intended to run in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Catalog import scheduler started", zap.Int("hour_utc", s.hourUTC))

	for {
		next := nextRunAfter(time.Now().UTC(), s.hourUTC)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Catalog import scheduler stopped")
			return
		case <-timer.C:
		}

		if err := s.processor.Run(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.log.Error("Scheduled import run failed", zap.Error(err))
		}
	}
}

// nextRunAfter returns the next occurrence of hourUTC strictly after now.
func nextRunAfter(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
