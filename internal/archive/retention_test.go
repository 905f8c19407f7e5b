package archive

import (
	"context"
	"testing"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_PruneBefore(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	old := newRun("s1", domain.ClassificationHigh, now.Add(-40*24*time.Hour))
	recent := newRun("s1", domain.ClassificationLow, now.Add(-2*time.Hour))
	require.NoError(t, store.SaveRun(ctx, old))
	require.NoError(t, store.SaveRun(ctx, recent))

	removed, err := store.PruneBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetRun(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestRetention_RunOnce(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, newRun("s1", domain.ClassificationHigh, now.Add(-10*24*time.Hour))))
	require.NoError(t, store.SaveRun(ctx, newRun("s2", domain.ClassificationSafe, now.Add(-time.Hour))))

	retention := NewRetention(store, 7*24*time.Hour, logging.Discard())
	retention.now = func() time.Time { return now }

	removed, err := retention.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := store.Count(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRetention_DisabledKeepsEverything(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, newRun("s1", domain.ClassificationHigh, time.Now().Add(-365*24*time.Hour))))

	removed, err := NewRetention(store, 0, logging.Discard()).RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRetention_RunRejectsBadSchedule(t *testing.T) {
	retention := NewRetention(createTestStore(t), time.Hour, logging.Discard())

	err := retention.Run(context.Background(), "every tuesday")
	assert.Error(t, err)
}

func TestRetention_RunStopsWithContext(t *testing.T) {
	retention := NewRetention(createTestStore(t), time.Hour, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- retention.Run(ctx, "@every 1h") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("retention did not stop")
	}
}
