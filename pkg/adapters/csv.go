// Package adapters provides climacast data source connectors that retrieve
// raw climate series from files, URLs or databases and normalize them into a
// common DataFrame structure.
//
// Each adapter implements the Adapter interface. Available adapters:
//   - CSVAdapter: reads a local CSV file
//   - HTTPAdapter: downloads a CSV document over HTTP(S)
//   - SQLiteAdapter: reads a table from a SQLite database
//
// Adapters only pull and shape data. Merging sources on the time key,
// imputation and feature derivation live in the features package.
package adapters

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVAdapter reads a comma-separated file with a header row.
// Header names are trimmed and lower-cased, so "Year" and "year" are the
// same column. Empty cells and NA/NaN/null markers are treated as missing.
type CSVAdapter struct {
	Path string
}

func (c *CSVAdapter) Name() string { return "csv" }

// String returns the location the adapter reads from.
func (c *CSVAdapter) String() string { return c.Path }

// Collect implements Adapter.
func (c *CSVAdapter) Collect(ctx context.Context) (*DataFrame, error) {
	if c.Path == "" {
		return nil, errors.New("csv adapter: Path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) (*DataFrame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header row")
		}
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeColumn(h)
	}

	df := &DataFrame{Columns: columns}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}

		row := make(Row, len(columns))
		for i, cell := range record {
			if i >= len(columns) {
				break
			}
			v, ok, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("csv: line %d column %q: %w", line, columns[i], err)
			}
			if ok {
				row[columns[i]] = v
			}
		}
		df.Rows = append(df.Rows, row)
	}

	return df, nil
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(name))
}

// parseCell returns ok=false for a missing value.
func parseCell(cell string) (float64, bool, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "***":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
