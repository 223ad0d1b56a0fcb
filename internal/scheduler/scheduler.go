// Package scheduler opens planned work orders for maintenance plans that
// come due, either on demand or on a cron schedule.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/toir/internal/store"
)

// DefaultHorizon is how far ahead a plan counts as due.
const DefaultHorizon = 24 * time.Hour

// runTimeout bounds a single cron-triggered pass.
const runTimeout = time.Minute

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler creates due work orders. Passes never overlap within a process.
type Scheduler struct {
	db      *sql.DB
	horizon time.Duration
	loc     *time.Location
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New returns a scheduler. A non-positive horizon selects DefaultHorizon and
// a nil location selects UTC.
func New(db *sql.DB, horizon time.Duration, loc *time.Location) *Scheduler {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{db: db, horizon: horizon, loc: loc, now: time.Now}
}

// RunOnce performs one pass and returns the number of orders created.
// createdBy is recorded on the new orders; cron passes leave it nil.
func (s *Scheduler) RunOnce(ctx context.Context, createdBy *int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	n, err := store.AutoCreateDueOrders(ctx, s.db, now, s.horizon, createdBy)
	if err != nil {
		return 0, err
	}
	// The orders are committed; a failed bookkeeping write only loses LastRun.
	if err := store.SetSetting(ctx, s.db, store.SettingSchedulerLastRun, now.Format(time.RFC3339)); err != nil {
		slog.Error("recording scheduler run failed", "error", err)
	}
	if n > 0 {
		slog.Info("planned work orders created", "count", n)
	}
	return n, nil
}

// LastRun returns the time of the last completed pass, zero if there was
// none.
func (s *Scheduler) LastRun(ctx context.Context) (time.Time, error) {
	v, err := store.GetSetting(ctx, s.db, store.SettingSchedulerLastRun)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last scheduler run: %w", err)
	}
	return t, nil
}

// Start runs RunOnce on the given cron spec (five or six fields, or a
// descriptor such as "@hourly"). An empty spec leaves the scheduler manual.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		return nil
	}

	c := cron.New(cron.WithParser(parser), cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx, nil); err != nil {
			slog.Error("scheduled work order pass failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	slog.Info("scheduler started", "spec", spec, "timezone", s.loc.String())
	return nil
}

// Stop halts the cron loop and waits for a running pass, or until ctx is
// done.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}
