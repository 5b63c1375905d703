package adapters

import (
	"context"
	"fmt"
	"slices"
)

// Row is a single observation. A missing cell is an absent key.
// Example: {"year": 2004, "co2": 377.5}
type Row map[string]float64

// DataFrame is a lightweight column-oriented table returned by adapters.
// Columns lists every column the source declares, in source order, even when
// some rows lack a value for it.
type DataFrame struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the frame declares the named column.
func (df *DataFrame) HasColumn(name string) bool {
	return slices.Contains(df.Columns, name)
}

// Adapter is the interface that all climacast data sources implement.
//
// Adapters fetch raw records from a named location (a file, a URL, a database
// table), shape them into a DataFrame and leave merging, imputation and
// feature derivation to the features package.
//
// Collect is synchronous and should respect context cancellation.
type Adapter interface {
	// Collect fetches every record the source holds.
	Collect(ctx context.Context) (*DataFrame, error)

	// Name returns a short identifier for the adapter kind.
	// Example: "csv", "http", "sqlite".
	Name() string
}

// DataSourceError reports a source that could not be fetched or read.
type DataSourceError struct {
	Source   string
	Location string
	Err      error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q (%s): %v", e.Source, e.Location, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }
