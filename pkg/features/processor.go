// Package features turns raw source frames into the clean feature table the
// trainer consumes: inner join on the time key, forward-fill imputation,
// rolling and difference features, then removal of incomplete rows.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/HatiCode/climacast/pkg/adapters"
	"github.com/HatiCode/climacast/pkg/models"
)

// Derived column names.
const (
	RollingColumn = "co2_5yr_avg"
	DiffColumn    = "temp_anomaly_diff"
	RollingWindow = 5
)

// SchemaError reports a column that is missing from, or conflicts within, the
// merged schema.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: column %q %s", e.Column, e.Reason)
}

// Options configures a Processor.
type Options struct {
	// Key is the merge key shared by every source, e.g. "year".
	Key string
	// Features are the columns to impute, in order.
	Features []string
	Target   string
	// CO2Column feeds co2_5yr_avg and TempColumn feeds temp_anomaly_diff.
	CO2Column  string
	TempColumn string
}

// DefaultOptions matches the bundled CO2 and temperature datasets.
func DefaultOptions() Options {
	return Options{
		Key:        "year",
		Features:   []string{"co2", "temp_anomaly"},
		Target:     "temp_anomaly",
		CO2Column:  "co2",
		TempColumn: "temp_anomaly",
	}
}

// Processor prepares feature frames.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

// NewProcessor validates opts and returns a Processor. A nil logger falls back
// to slog.Default().
func NewProcessor(opts Options, logger *slog.Logger) (*Processor, error) {
	if opts.Key == "" {
		return nil, fmt.Errorf("merge key is required")
	}
	if len(opts.Features) == 0 {
		return nil, fmt.Errorf("at least one feature column is required")
	}
	if opts.Target == "" {
		return nil, fmt.Errorf("target column is required")
	}
	if opts.CO2Column == "" || opts.TempColumn == "" {
		return nil, fmt.Errorf("co2 and temperature columns are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{opts: opts, logger: logger.With("component", "processor")}, nil
}

// Prepare merges sources on the key and returns the clean feature table,
// ordered by ascending key.
func (p *Processor) Prepare(sources map[string]*adapters.DataFrame) (models.FeatureFrame, error) {
	rows, columns, err := p.merge(sources)
	if err != nil {
		return models.FeatureFrame{}, err
	}

	required := []string{p.opts.CO2Column, p.opts.TempColumn, p.opts.Target}
	required = append(required, p.opts.Features...)
	for _, col := range required {
		if !slices.Contains(columns, col) {
			return models.FeatureFrame{}, &SchemaError{Column: col, Reason: "is not present after merge"}
		}
	}

	FillForward(rows, p.opts.Features)
	RollingMean(rows, p.opts.CO2Column, RollingColumn, RollingWindow)
	Diff(rows, p.opts.TempColumn, DiffColumn)

	outCols := []string{p.opts.Key}
	// The derivation inputs are complete wherever their derived columns are,
	// so carrying them drops no extra rows.
	for _, col := range append(slices.Clone(p.opts.Features), p.opts.CO2Column, p.opts.TempColumn, RollingColumn, DiffColumn, p.opts.Target) {
		if !slices.Contains(outCols, col) {
			outCols = append(outCols, col)
		}
	}

	out := make([]map[string]float64, 0, len(rows))
	for _, row := range rows {
		if !complete(row, outCols) {
			continue
		}
		projected := make(map[string]float64, len(outCols))
		for _, col := range outCols {
			projected[col] = row[col]
		}
		out = append(out, projected)
	}

	p.logger.Debug("prepared features",
		"merged_rows", len(rows),
		"rows", len(out),
		"dropped", len(rows)-len(out),
	)

	return models.FeatureFrame{Key: p.opts.Key, Columns: outCols, Rows: out}, nil
}

// RequireColumns returns a SchemaError for the first of cols that the
// prepared frame does not carry. It holds for an empty frame too, so a bad
// model column is reported before any row count check.
func RequireColumns(frame models.FeatureFrame, cols ...string) error {
	for _, col := range cols {
		if !slices.Contains(frame.Columns, col) {
			return &SchemaError{Column: col, Reason: "is not a prepared feature column"}
		}
	}
	return nil
}

// merge inner-joins every source on the key. Sources are visited in name
// order, so the merged column order is deterministic.
func (p *Processor) merge(sources map[string]*adapters.DataFrame) ([]map[string]float64, []string, error) {
	key := p.opts.Key
	if len(sources) < 2 {
		return nil, nil, &SchemaError{Column: key, Reason: fmt.Sprintf("needs at least two sources to merge on, got %d", len(sources))}
	}

	names := slices.Sorted(maps.Keys(sources))
	columns := []string{key}
	owner := make(map[string]string)
	indexes := make([]map[float64]adapters.Row, 0, len(names))

	for _, name := range names {
		df := sources[name]
		if df == nil || !df.HasColumn(key) {
			return nil, nil, &SchemaError{Column: key, Reason: fmt.Sprintf("is missing from source %q", name)}
		}

		for _, col := range df.Columns {
			if col == key {
				continue
			}
			if prev, dup := owner[col]; dup {
				return nil, nil, &SchemaError{Column: col, Reason: fmt.Sprintf("appears in sources %q and %q", prev, name)}
			}
			owner[col] = name
			columns = append(columns, col)
		}

		// A repeated key keeps the last row.
		index := make(map[float64]adapters.Row, len(df.Rows))
		for _, row := range df.Rows {
			if k, ok := row[key]; ok {
				index[k] = row
			}
		}
		indexes = append(indexes, index)
	}

	var keys []float64
	for k := range indexes[0] {
		if inAll(k, indexes[1:]) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	rows := make([]map[string]float64, 0, len(keys))
	for _, k := range keys {
		row := map[string]float64{key: k}
		for _, index := range indexes {
			maps.Copy(row, index[k])
		}
		rows = append(rows, row)
	}

	p.logger.Debug("merged sources",
		"sources", strings.Join(names, ","),
		"rows", len(rows),
	)
	return rows, columns, nil
}

func inAll(k float64, indexes []map[float64]adapters.Row) bool {
	for _, index := range indexes {
		if _, ok := index[k]; !ok {
			return false
		}
	}
	return true
}

func complete(row map[string]float64, columns []string) bool {
	for _, col := range columns {
		if _, ok := row[col]; !ok {
			return false
		}
	}
	return true
}

// Load collects every adapter in name order and stops at the first failure,
// which is returned as an *adapters.DataSourceError.
func Load(ctx context.Context, sources map[string]adapters.Adapter) (map[string]*adapters.DataFrame, error) {
	out := make(map[string]*adapters.DataFrame, len(sources))
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		ad := sources[name]
		location := ad.Name()
		if s, ok := ad.(fmt.Stringer); ok {
			location = s.String()
		}

		if err := ctx.Err(); err != nil {
			return nil, &adapters.DataSourceError{Source: name, Location: location, Err: err}
		}

		df, err := ad.Collect(ctx)
		if err != nil {
			return nil, &adapters.DataSourceError{Source: name, Location: location, Err: err}
		}
		out[name] = df
	}
	return out, nil
}
