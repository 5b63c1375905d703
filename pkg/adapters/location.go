package adapters

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FromLocation picks an adapter for a configured source location:
//
//	http://... or https://...        -> HTTPAdapter
//	sqlite://<path>?table=<name>     -> SQLiteAdapter
//	anything else                    -> CSVAdapter on a local path
//
// client is used by HTTP adapters and may be nil.
func FromLocation(location string, client *http.Client) (Adapter, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return &HTTPAdapter{URL: location, HTTPClient: client}, nil

	case strings.HasPrefix(location, "sqlite://"):
		rest := strings.TrimPrefix(location, "sqlite://")
		path, rawQuery, _ := strings.Cut(rest, "?")
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return nil, fmt.Errorf("invalid sqlite location %q: %w", location, err)
		}
		table := q.Get("table")
		if path == "" || table == "" {
			return nil, fmt.Errorf("sqlite location %q must be sqlite://<path>?table=<name>", location)
		}
		return &SQLiteAdapter{Path: path, Table: table}, nil

	case location == "":
		return nil, fmt.Errorf("empty source location")

	default:
		return &CSVAdapter{Path: location}, nil
	}
}
