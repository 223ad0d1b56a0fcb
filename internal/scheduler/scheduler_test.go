package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/toir/internal/db"
	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := store.ResetEquipment(ctx, database)
	require.NoError(t, err)
	week := 7
	for _, id := range []string{"gear", "bearing"} {
		_, err := store.CreatePlan(ctx, database, model.PlanInput{
			EquipmentNodeID: id, FrequencyType: model.FrequencyDays, FrequencyValue: &week,
		}, nil, base)
		require.NoError(t, err)
	}

	s := New(database, 0, nil)
	s.now = func() time.Time { return base.AddDate(0, 0, 7) }
	return s
}

func TestRunOnceLastRunFailure(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()

	_, err := s.db.Exec(`DROP TABLE settings`)
	require.NoError(t, err)

	n, err := s.RunOnce(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM work_orders`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestNewDefaults(t *testing.T) {
	s := New(nil, 0, nil)
	assert.Equal(t, DefaultHorizon, s.horizon)
	assert.Equal(t, time.UTC, s.loc)
}

func TestRunOnce(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()

	n, err := s.RunOnce(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RunOnce(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	last, err := s.LastRun(ctx)
	require.NoError(t, err)
	assert.True(t, base.AddDate(0, 0, 7).Equal(last))
}

func TestRunOnceConcurrent(t *testing.T) {
	s := newScheduler(t)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.RunOnce(context.Background(), nil)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, total, "one order per equipment across all passes")
}

func TestStart(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.Start(""))
	assert.Nil(t, s.cron, "empty spec stays manual")

	assert.Error(t, s.Start("every tuesday"))

	require.NoError(t, s.Start("@hourly"))
	require.NotNil(t, s.cron)
	assert.Len(t, s.cron.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
