package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatiCode/climacast/pkg/models"
)

func fittedArtifact(t *testing.T) *Artifact {
	t.Helper()
	X := [][]float64{{369}, {371}, {373}, {375}, {377}, {379}, {381}}
	y := []float64{0.40, 0.44, 0.47, 0.52, 0.55, 0.60, 0.63}

	m := models.NewRandomForestRegressor(models.WithEstimators(20), models.WithSeed(42))
	require.NoError(t, m.Fit(X, y))

	return &Artifact{
		Model:      m,
		Features:   []string{"co2"},
		Target:     "temp_anomaly",
		RunID:      "run-1",
		TrainedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Rows:       len(X),
		FoldErrors: []float64{0.02, 0.03},
		MeanError:  0.025,
	}
}

func assertSamePredictions(t *testing.T, want, got *Artifact) {
	t.Helper()
	query := [][]float64{{370}, {379.5}, {390}}
	w, err := want.Model.Predict(query)
	require.NoError(t, err)
	g, err := got.Model.Predict(query)
	require.NoError(t, err)
	assert.InDeltaSlice(t, w, g, 1e-12)

	assert.Equal(t, want.Features, got.Features)
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.FoldErrors, got.FoldErrors)
	assert.True(t, want.TrainedAt.Equal(got.TrainedAt))
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models", "model.gob")
	s := NewFileStore(path)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	a := fittedArtifact(t)
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSamePredictions(t, a, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestFileStore_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "model.gob"))

	first := fittedArtifact(t)
	require.NoError(t, s.Save(ctx, first))

	second := fittedArtifact(t)
	second.RunID = "run-2"
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
}

func TestFileStore_CorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFileStore_FailedSaveKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "model.gob"))
	require.NoError(t, s.Save(ctx, fittedArtifact(t)))

	err := s.Save(ctx, &Artifact{Features: []string{"co2"}})
	require.Error(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	a := fittedArtifact(t)
	require.NoError(t, s.Save(ctx, a))
	assert.Equal(t, 1, s.Saves())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSamePredictions(t, a, got)

	s.SetRaw([]byte{0x01, 0x02})
	_, err = s.Load(ctx)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "m.gob")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Config{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, Config{Backend: "file"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "s3"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "redis", RedisURL: "not a url"}, nil)
	assert.Error(t, err)
}
