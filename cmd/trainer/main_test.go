package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HatiCode/climacast/cmd/trainer/config"
	"github.com/HatiCode/climacast/pkg/storage"
)

func writePipeline(t *testing.T, artifact string) string {
	t.Helper()
	dir := t.TempDir()

	var co2, temp strings.Builder
	co2.WriteString("Year,CO2\n")
	temp.WriteString("Year,Temp_Anomaly\n")
	for i := range 15 {
		fmt.Fprintf(&co2, "%d,%.1f\n", 2000+i, 369+2*float64(i))
		fmt.Fprintf(&temp, "%d,%.2f\n", 2000+i, 0.4+0.03*float64(i))
	}
	co2Path := filepath.Join(dir, "co2.csv")
	tempPath := filepath.Join(dir, "temperature.csv")
	if err := os.WriteFile(co2Path, []byte(co2.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tempPath, []byte(temp.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := fmt.Sprintf(`data_sources:
  co2: %s
  temperature: %s
model:
  type: linear
training:
  splits: 3
artifact:
  backend: file
  path: %s
`, co2Path, tempPath, artifact)
	path := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_PersistsArtifact(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "model.gob")
	cfg := &config.Config{
		PipelineConfig: writePipeline(t, artifact),
		Timeout:        time.Minute,
		FetchTimeout:   time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := run(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	// 15 merged years minus the four without a full rolling window.
	if res.Rows != 11 {
		t.Errorf("Rows = %d, want 11", res.Rows)
	}
	if len(res.Folds) != 3 {
		t.Errorf("len(Folds) = %d, want 3", len(res.Folds))
	}

	a, err := storage.NewFileStore(artifact).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.RunID != res.RunID {
		t.Errorf("artifact run id = %q, want %q", a.RunID, res.RunID)
	}
	if a.Model.Name() != "linear" {
		t.Errorf("artifact model = %q, want linear", a.Model.Name())
	}

	var out bytes.Buffer
	printSummary(&out, res)
	for _, want := range []string{"Training complete", "Fold 2:", "RMSE", "Mean MAE:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_MissingConfig(t *testing.T) {
	cfg := &config.Config{
		PipelineConfig: filepath.Join(t.TempDir(), "missing.yaml"),
		Timeout:        time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := run(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
