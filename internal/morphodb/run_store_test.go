package morphodb

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// newTestDB opens a migrated database in a temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err, "Open failed")
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp(), "MigrateUp failed")
	return db
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.MigrateUp(), "second MigrateUp failed")

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore(newTestDB(t))

	run := &Run{
		Kind:         KindElongation,
		InputPath:    "cuencas.geojson",
		OutputPath:   "cuencas_elongacion.geojson",
		ParamsJSON:   json.RawMessage(`{"filter_anomalies":true}`),
		FeatureCount: 12,
		WarningCount: 2,
		StatsJSON:    json.RawMessage(`{"elon_media":0.58}`),
	}
	require.NoError(t, store.InsertRun(run))
	require.NotEmpty(t, run.RunID, "InsertRun did not assign a run ID")
	require.NotZero(t, run.CreatedAt, "InsertRun did not assign a timestamp")

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, KindElongation, got.Kind)
	assert.Equal(t, 12, got.FeatureCount)
	assert.Equal(t, 2, got.WarningCount)
	assert.JSONEq(t, `{"elon_media":0.58}`, string(got.StatsJSON))

	_, err = store.GetRun("no-such-run")
	assert.Error(t, err, "expected error for unknown run ID")
}

func TestRunStore_ListRunsByKind(t *testing.T) {
	store := NewRunStore(newTestDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertRun(&Run{Kind: KindGradient, CreatedAt: int64(i + 1)}))
	}
	require.NoError(t, store.InsertRun(&Run{Kind: KindElongation, CreatedAt: 10}))

	runs, err := store.ListRuns(KindGradient, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, int64(3), runs[0].CreatedAt)
	assert.Equal(t, int64(1), runs[2].CreatedAt)

	all, err := store.ListRuns("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunStore_ElongationResults(t *testing.T) {
	store := NewRunStore(newTestDB(t))

	run := &Run{Kind: KindElongation}
	require.NoError(t, store.InsertRun(run))

	results := []morpho.ElongationResult{
		{BasinID: 1, Area: 100, Distance3D: 20, ElongationRatio: 0.56, Class: morpho.ClassSlightlyWidened, SampleCount: 8},
		{BasinID: 2, Area: 250, Distance3D: 40, ElongationRatio: 0.44, Class: morpho.ClassIntermediate, SampleCount: 5},
	}
	require.NoError(t, store.InsertElongationResults(run.RunID, results))

	n, err := store.CountResults(run.RunID, KindElongation)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunStore_GradientResults(t *testing.T) {
	store := NewRunStore(newTestDB(t))

	run := &Run{Kind: KindGradient}
	require.NoError(t, store.InsertRun(run))

	results := []morpho.GradientResult{
		{Point: morpho.OrderedPoint{SamplePoint: morpho.SamplePoint{ID: 7, Z: 100}, Order: 0}, SLKFiltered: 25, State: morpho.StateValid},
		{Point: morpho.OrderedPoint{SamplePoint: morpho.SamplePoint{ID: 8, Z: 50}, Order: 1}, SLKFiltered: 75, State: morpho.StateValid},
	}
	require.NoError(t, store.InsertGradientResults(run.RunID, results))

	n, err := store.CountResults(run.RunID, KindGradient)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		callCount := 0
		err := retryOnBusy(func() error {
			callCount++
			return nil
		})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if callCount != 1 {
			t.Errorf("expected 1 call, got %d", callCount)
		}
	})

	t.Run("success after retry", func(t *testing.T) {
		callCount := 0
		err := retryOnBusy(func() error {
			callCount++
			if callCount < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if callCount != 3 {
			t.Errorf("expected 3 calls, got %d", callCount)
		}
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		callCount := 0
		testErr := errors.New("some other error")
		err := retryOnBusy(func() error {
			callCount++
			return testErr
		})
		if err != testErr {
			t.Errorf("expected error %v, got %v", testErr, err)
		}
		if callCount != 1 {
			t.Errorf("expected 1 call, got %d", callCount)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		callCount := 0
		err := retryOnBusy(func() error {
			callCount++
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		})
		if err == nil {
			t.Error("expected error, got nil")
		}
		if callCount != 5 {
			t.Errorf("expected 5 calls (max retries), got %d", callCount)
		}
	})
}
