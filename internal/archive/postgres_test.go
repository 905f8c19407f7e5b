package archive

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock
}

var runRowColumns = []string{
	"id", "session_id", "patient_id", "overall_risk",
	"total_variants", "total_drugs", "result", "created_at",
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	store, err := NewPostgresStore(nil)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestPostgresStore_SaveRun(t *testing.T) {
	store, mock := newMockStore(t)
	run := newRun("session-a", domain.ClassificationHigh, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WithArgs(run.ID.String(), "session-a", "PATIENT_001", "high", 2, 1, sqlmock.AnyArg(), run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRunUsesConflictGuard(t *testing.T) {
	store, mock := newMockStore(t)
	run := newRun("session-a", domain.ClassificationLow, time.Now().UTC())

	mock.ExpectExec(`ON CONFLICT \(id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRunError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO analysis_runs").WillReturnError(sql.ErrConnDone)

	err := store.SaveRun(context.Background(), newRun("s", domain.ClassificationSafe, time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresStore_GetRun(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(runRowColumns).
		AddRow(id.String(), "session-a", "P1", "critical", 4, 2, []byte(`{"overallRisk":"critical","drugs":[]}`), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_runs WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnRows(rows)

	run, err := store.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, domain.ClassificationCritical, run.OverallRisk)
	require.NotNil(t, run.Result)
	assert.Equal(t, domain.ClassificationCritical, run.Result.OverallRisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRunNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM analysis_runs").WillReturnError(sql.ErrNoRows)

	_, err := store.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStore_ListRuns(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	rows := sqlmock.NewRows(runRowColumns).
		AddRow(uuid.NewString(), "session-a", "", "safe", 0, 1, []byte("null"), created).
		AddRow(uuid.NewString(), "session-a", "", "low", 1, 1, []byte("null"), created.Add(-time.Hour))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("session-a", 50, 0).
		WillReturnRows(rows)

	runs, err := store.ListRuns(context.Background(), ListFilter{SessionID: "session-a"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, domain.ClassificationLow, runs[1].OverallRisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountAndDelete(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM analysis_runs")).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analysis_runs WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := store.Count(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	require.NoError(t, store.DeleteRun(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PruneBefore(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analysis_runs WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := store.PruneBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
