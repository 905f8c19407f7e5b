package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func sampleResult() *domain.UIAnalysisResult {
	return &domain.UIAnalysisResult{
		AnalyzedAt:    time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC),
		TotalVariants: 1,
		OverallRisk:   domain.ClassificationCritical,
		ToxicityBreakdown: domain.ToxicityBreakdown{
			Critical: 1,
		},
		Variants: []domain.MergedVariant{{RSID: "rs123", Ref: "A", Alt: "G", DrugInteractions: []string{"WARFARIN"}}},
		Drugs:    []domain.DrugRiskRow{},
		Summary: domain.AnalysisSummary{
			SafeDrugs:            []string{},
			CautionDrugs:         []string{},
			ContraindicatedDrugs: []string{"WARFARIN"},
			Recommendations:      []string{},
		},
	}
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	require.NoError(t, Save(ctx, store, "s-1", sampleResult(), 0))

	restored, ok := Restore(ctx, store, "s-1", testLogger())
	require.True(t, ok)
	assert.Equal(t, sampleResult(), restored)
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	first := sampleResult()
	second := sampleResult()
	second.OverallRisk = domain.ClassificationSafe

	require.NoError(t, Save(ctx, store, "s-1", first, 0))
	require.NoError(t, Save(ctx, store, "s-1", second, 0))

	restored, ok := Restore(ctx, store, "s-1", testLogger())
	require.True(t, ok)
	assert.Equal(t, domain.ClassificationSafe, restored.OverallRisk)
}

func TestRestore_Missing(t *testing.T) {
	restored, ok := Restore(context.Background(), NewMemoryStore(10, time.Hour), "unknown", testLogger())
	assert.False(t, ok)
	assert.Nil(t, restored)
}

func TestRestore_CorruptedValueIsMissAndRemoved(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	require.NoError(t, store.Put(ctx, "s-1", ResultKey, []byte("{not json"), 0))

	restored, ok := Restore(ctx, store, "s-1", testLogger())
	assert.False(t, ok)
	assert.Nil(t, restored)

	_, present, err := store.Get(ctx, "s-1", ResultKey)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSessionIDRequired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	err := Save(ctx, store, " ", sampleResult(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidUpload)

	_, ok := Restore(ctx, store, "", testLogger())
	assert.False(t, ok)

	assert.Error(t, Clear(ctx, store, ""))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	require.NoError(t, Save(ctx, store, "s-1", sampleResult(), 0))

	require.NoError(t, Clear(ctx, store, "s-1"))

	_, ok := Restore(ctx, store, "s-1", testLogger())
	assert.False(t, ok)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, sessionID, key, value, ttl).Error(0)
}

func (m *mockStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	args := m.Called(ctx, sessionID, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1), args.Error(2)
}

func (m *mockStore) Delete(ctx context.Context, sessionID, key string) error {
	return m.Called(ctx, sessionID, key).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func TestRestore_BackendErrorIsMiss(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything, "s-1", ResultKey).Return(nil, false, errors.New("connection refused"))

	restored, ok := Restore(context.Background(), store, "s-1", testLogger())

	assert.False(t, ok)
	assert.Nil(t, restored)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSave_BackendError(t *testing.T) {
	store := new(mockStore)
	store.On("Put", mock.Anything, "s-1", ResultKey, mock.Anything, time.Minute).Return(errors.New("read only"))

	err := Save(context.Background(), store, "s-1", sampleResult(), time.Minute)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store analysis result")
	store.AssertExpectations(t)
}
