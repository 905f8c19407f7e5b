package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultRetentionSchedule prunes once a day at midnight.
const DefaultRetentionSchedule = "@daily"

// Retention periodically removes runs older than its maximum age.
type Retention struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time
	log    *logrus.Logger
}

// NewRetention creates a retention job for store.
func NewRetention(store Store, maxAge time.Duration, logger *logrus.Logger) *Retention {
	return &Retention{
		store:  store,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logger,
	}
}

// RunOnce prunes every run older than the maximum age.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	if r.maxAge <= 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.maxAge)

	removed, err := r.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	r.log.WithFields(logrus.Fields{
		"cutoff":  cutoff,
		"removed": removed,
	}).Info("Pruned archived analysis runs")
	return removed, nil
}

// Run schedules RunOnce on the cron spec and blocks until ctx is cancelled.
func (r *Retention) Run(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := r.RunOnce(jobCtx); err != nil {
			r.log.WithError(err).Error("Archive retention failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	r.log.WithFields(logrus.Fields{
		"schedule": schedule,
		"max_age":  r.maxAge.String(),
	}).Info("Archive retention scheduled")

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
