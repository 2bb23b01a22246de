// Package notify keeps the notification store within its retention window.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nhle/claims-portal/internal/logger"
)

// Evicter removes notifications created before a cutoff.
type Evicter interface {
	EvictOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically evicts notifications older than MaxAge.
type Janitor struct {
	store    Evicter
	maxAge   time.Duration
	schedule string
	now      func() time.Time
	log      *slog.Logger

	cron *cron.Cron
}

// NewJanitor creates a janitor that runs on schedule (a cron spec such as
// "@every 1m").
func NewJanitor(store Evicter, maxAge time.Duration, schedule string, log *slog.Logger) *Janitor {
	if log == nil {
		log = logger.Get()
	}
	return &Janitor{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
		now:      time.Now,
		log:      log,
	}
}

// Start registers the eviction job and starts the scheduler.
func (j *Janitor) Start() error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(j.schedule, func() { j.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("registering eviction schedule %q: %w", j.schedule, err)
	}
	j.cron = c
	c.Start()
	j.log.Debug("notification janitor started",
		slog.String("schedule", j.schedule),
		slog.Duration("max_age", j.maxAge),
	)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.cron = nil
}

// Sweep evicts expired notifications once and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	cutoff := j.now().Add(-j.maxAge)
	n, err := j.store.EvictOlderThan(ctx, cutoff)
	if err != nil {
		j.log.Warn("notification eviction failed", slog.Any("error", err))
		return 0
	}
	if n > 0 {
		j.log.Debug("evicted notifications", slog.Int64("count", n))
	}
	return n
}
