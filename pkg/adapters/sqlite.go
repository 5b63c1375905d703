package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteAdapter reads every row of a table from a SQLite database file.
// Column names are lower-cased; NULL cells are treated as missing.
type SQLiteAdapter struct {
	Path  string
	Table string
}

func (s *SQLiteAdapter) Name() string { return "sqlite" }

// String returns the location the adapter reads from.
func (s *SQLiteAdapter) String() string { return "sqlite://" + s.Path + "?table=" + s.Table }

// Collect implements Adapter.
func (s *SQLiteAdapter) Collect(ctx context.Context) (*DataFrame, error) {
	if s.Path == "" || s.Table == "" {
		return nil, errors.New("sqlite adapter: Path and Table are required")
	}
	if !tableNameRe.MatchString(s.Table) {
		return nil, fmt.Errorf("sqlite adapter: invalid table name %q", s.Table)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.Path))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, s.Table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(names))
	for i, n := range names {
		columns[i] = normalizeColumn(n)
	}

	df := &DataFrame{Columns: columns}
	cells := make([]sql.NullFloat64, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		row := make(Row, len(columns))
		for i, c := range cells {
			if c.Valid {
				row[columns[i]] = c.Float64
			}
		}
		df.Rows = append(df.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return df, nil
}
