package features

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/HatiCode/climacast/pkg/adapters"
)

type fakeAdapter struct {
	df  *adapters.DataFrame
	err error
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Collect(ctx context.Context) (*adapters.DataFrame, error) {
	return f.df, f.err
}

func series(column string, start int, values ...float64) *adapters.DataFrame {
	df := &adapters.DataFrame{Columns: []string{"year", column}}
	for i, v := range values {
		row := adapters.Row{"year": float64(start + i)}
		if !math.IsNaN(v) {
			row[column] = v
		}
		df.Rows = append(df.Rows, row)
	}
	return df
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	return p
}

func TestProcessor_Prepare(t *testing.T) {
	nan := math.NaN()
	sources := map[string]*adapters.DataFrame{
		"co2":         series("co2", 2000, 369, 371, nan, 375, 377, 379, 381, 383),
		"temperature": series("temp_anomaly", 1998, 0.1, 0.2, 0.40, 0.42, 0.45, nan, 0.50, 0.55, 0.60, 0.62),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// Inner join keeps 2000..2007; the first 4 rows have no rolling mean.
	if frame.Len() != 4 {
		t.Fatalf("Len() = %d, want 4: %v", frame.Len(), frame.Rows)
	}
	wantYears := []float64{2004, 2005, 2006, 2007}
	for i, y := range frame.Keys() {
		if y != wantYears[i] {
			t.Errorf("year[%d] = %v, want %v", i, y, wantYears[i])
		}
	}

	// 2002 co2 is forward filled from 2001, so the 2004 window is
	// 369, 371, 371, 375, 377.
	if got, want := frame.Rows[0][RollingColumn], (369.0+371+371+375+377)/5; math.Abs(got-want) > 1e-9 {
		t.Errorf("2004 %s = %v, want %v", RollingColumn, got, want)
	}

	// 2003 temp is forward filled from 2002 (0.45), so the 2004 diff is 0.05.
	if got := frame.Rows[0][DiffColumn]; math.Abs(got-0.05) > 1e-9 {
		t.Errorf("2004 %s = %v, want 0.05", DiffColumn, got)
	}

	wantCols := []string{"year", "co2", "temp_anomaly", RollingColumn, DiffColumn}
	if len(frame.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v, want %v", frame.Columns, wantCols)
	}
	for i := range wantCols {
		if frame.Columns[i] != wantCols[i] {
			t.Errorf("Columns[%d] = %q, want %q", i, frame.Columns[i], wantCols[i])
		}
	}
}

func TestProcessor_Prepare_NoMissingValues(t *testing.T) {
	nan := math.NaN()
	sources := map[string]*adapters.DataFrame{
		"co2":         series("co2", 2000, nan, 370, nan, nan, 374, 375, nan, 377, 378, 379, 380, nan),
		"temperature": series("temp_anomaly", 2000, 0.4, nan, nan, 0.43, 0.44, nan, 0.46, 0.47, nan, 0.49, 0.5, 0.51),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if frame.Len() == 0 {
		t.Fatal("expected some rows")
	}
	for i, row := range frame.Rows {
		for _, col := range frame.Columns {
			v, ok := row[col]
			if !ok || math.IsNaN(v) {
				t.Errorf("row %d column %q missing", i, col)
			}
		}
	}
}

func TestProcessor_Prepare_RollingMeanMatchesWindow(t *testing.T) {
	co2 := []float64{369, 370.2, 372.1, 373.3, 375.6, 377.0, 379.4, 381.1, 383.2, 385.9}
	temps := []float64{0.40, 0.42, 0.41, 0.47, 0.50, 0.49, 0.55, 0.58, 0.60, 0.66}
	sources := map[string]*adapters.DataFrame{
		"co2":         series("co2", 2000, co2...),
		"temperature": series("temp_anomaly", 2000, temps...),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if frame.Len() != len(co2)-4 {
		t.Fatalf("Len() = %d, want %d", frame.Len(), len(co2)-4)
	}
	for j, row := range frame.Rows {
		i := j + 4
		want := (co2[i-4] + co2[i-3] + co2[i-2] + co2[i-1] + co2[i]) / 5
		if math.Abs(row[RollingColumn]-want) > 1e-9 {
			t.Errorf("row for year %v: %s = %v, want %v", row["year"], RollingColumn, row[RollingColumn], want)
		}
	}
}

func TestProcessor_Prepare_DisjointKeys(t *testing.T) {
	sources := map[string]*adapters.DataFrame{
		"co2":         series("co2", 1900, 300, 301, 302, 303, 304, 305),
		"temperature": series("temp_anomaly", 2000, 0.4, 0.41, 0.42, 0.43, 0.44, 0.45),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if frame.Len() != 0 {
		t.Errorf("Len() = %d, want 0", frame.Len())
	}
}

func TestProcessor_Prepare_DuplicateKeyKeepsLast(t *testing.T) {
	co2 := series("co2", 2000, 369, 370, 371, 372, 373, 374)
	co2.Rows = append(co2.Rows, adapters.Row{"year": 2005, "co2": 400})
	sources := map[string]*adapters.DataFrame{
		"co2":         co2,
		"temperature": series("temp_anomaly", 2000, 0.4, 0.41, 0.42, 0.43, 0.44, 0.45),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	last := frame.Rows[frame.Len()-1]
	if last["year"] != 2005 || last["co2"] != 400 {
		t.Errorf("last row = %v, want year 2005 co2 400", last)
	}
}

func TestProcessor_Prepare_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		sources map[string]*adapters.DataFrame
		column  string
	}{
		{
			name:    "single source",
			sources: map[string]*adapters.DataFrame{"co2": series("co2", 2000, 369)},
			column:  "year",
		},
		{
			name: "missing feature column",
			sources: map[string]*adapters.DataFrame{
				"co2":  series("co2", 2000, 369),
				"rain": series("rainfall", 2000, 12),
			},
			column: "temp_anomaly",
		},
		{
			name: "source without key",
			sources: map[string]*adapters.DataFrame{
				"co2":         series("co2", 2000, 369),
				"temperature": {Columns: []string{"date", "temp_anomaly"}},
			},
			column: "year",
		},
		{
			name: "column in two sources",
			sources: map[string]*adapters.DataFrame{
				"co2":         series("co2", 2000, 369),
				"co2_mirror":  series("co2", 2000, 369),
				"temperature": series("temp_anomaly", 2000, 0.4),
			},
			column: "co2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestProcessor(t).Prepare(tt.sources)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Prepare() error = %v, want *SchemaError", err)
			}
			if se.Column != tt.column {
				t.Errorf("SchemaError.Column = %q, want %q", se.Column, tt.column)
			}
		})
	}
}

func TestNewProcessor_Validates(t *testing.T) {
	bad := []Options{
		{},
		{Key: "year"},
		{Key: "year", Features: []string{"co2"}},
		{Key: "year", Features: []string{"co2"}, Target: "temp_anomaly"},
	}
	for i, opts := range bad {
		if _, err := NewProcessor(opts, nil); err == nil {
			t.Errorf("case %d: expected error for %+v", i, opts)
		}
	}
}

func TestLoad(t *testing.T) {
	ok := &fakeAdapter{df: series("co2", 2000, 369)}

	got, err := Load(context.Background(), map[string]adapters.Adapter{"co2": ok})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["co2"] != ok.df {
		t.Error("Load() did not return the collected frame")
	}

	boom := errors.New("connection refused")
	_, err = Load(context.Background(), map[string]adapters.Adapter{
		"co2":         ok,
		"temperature": &fakeAdapter{err: boom},
	})
	var dse *adapters.DataSourceError
	if !errors.As(err, &dse) {
		t.Fatalf("Load() error = %v, want *DataSourceError", err)
	}
	if dse.Source != "temperature" {
		t.Errorf("Source = %q, want temperature", dse.Source)
	}
	if !errors.Is(err, boom) {
		t.Error("DataSourceError should wrap the adapter error")
	}
}

func TestLoad_UsesAdapterLocation(t *testing.T) {
	_, err := Load(context.Background(), map[string]adapters.Adapter{
		"co2": &adapters.CSVAdapter{Path: "/nonexistent/co2.csv"},
	})
	var dse *adapters.DataSourceError
	if !errors.As(err, &dse) {
		t.Fatalf("Load() error = %v, want *DataSourceError", err)
	}
	if dse.Location != "/nonexistent/co2.csv" {
		t.Errorf("Location = %q, want the csv path", dse.Location)
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, map[string]adapters.Adapter{"co2": &fakeAdapter{df: series("co2", 2000, 369)}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestProcessor_Prepare_DropsUnconfiguredColumns(t *testing.T) {
	nan := math.NaN()
	sources := map[string]*adapters.DataFrame{
		"ch4":         series("ch4", 2000, 1770, nan, 1775, 1776, nan, 1780, 1781),
		"co2":         series("co2", 2000, 369, 371, 373, 375, 377, 379, 381),
		"temperature": series("temp_anomaly", 2000, 0.40, 0.42, 0.45, 0.47, 0.50, 0.52, 0.55),
	}

	frame, err := newTestProcessor(t).Prepare(sources)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if frame.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", frame.Len())
	}
	for _, col := range frame.Columns {
		if col == "ch4" {
			t.Fatalf("Columns = %v, ch4 is not a configured feature", frame.Columns)
		}
	}
	for i, row := range frame.Rows {
		if _, ok := row["ch4"]; ok {
			t.Errorf("row %d carries unconfigured column ch4", i)
		}
		if len(row) != len(frame.Columns) {
			t.Errorf("row %d has %d values, want %d", i, len(row), len(frame.Columns))
		}
	}
}

func TestRequireColumns(t *testing.T) {
	frame, err := newTestProcessor(t).Prepare(map[string]*adapters.DataFrame{
		"co2":         series("co2", 2000, 369, 371),
		"temperature": series("temp_anomaly", 1990, 0.3, 0.31),
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if frame.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for disjoint keys", frame.Len())
	}

	if err := RequireColumns(frame, "co2", RollingColumn, "temp_anomaly"); err != nil {
		t.Errorf("RequireColumns() error = %v", err)
	}

	err = RequireColumns(frame, "co2", "ch4")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("RequireColumns() error = %v, want SchemaError", err)
	}
	if schemaErr.Column != "ch4" {
		t.Errorf("Column = %q, want ch4", schemaErr.Column)
	}
}
