package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCSV_NormalizesHeaderAndMissingCells(t *testing.T) {
	doc := "Year, CO2 ,Note\n2000,369.5,1\n2001,,NA\n2002,NaN,3\n"

	df, err := parseCSV(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}

	wantCols := []string{"year", "co2", "note"}
	if len(df.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v, want %v", df.Columns, wantCols)
	}
	for i, c := range wantCols {
		if df.Columns[i] != c {
			t.Errorf("Columns[%d] = %q, want %q", i, df.Columns[i], c)
		}
	}

	if len(df.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(df.Rows))
	}
	if df.Rows[0]["co2"] != 369.5 {
		t.Errorf("row 0 co2 = %v, want 369.5", df.Rows[0]["co2"])
	}
	if _, ok := df.Rows[1]["co2"]; ok {
		t.Error("row 1 co2 should be missing")
	}
	if _, ok := df.Rows[1]["note"]; ok {
		t.Error("row 1 note should be missing")
	}
	if _, ok := df.Rows[2]["co2"]; ok {
		t.Error("row 2 co2 (NaN) should be missing")
	}
	if df.Rows[2]["year"] != 2002 {
		t.Errorf("row 2 year = %v, want 2002", df.Rows[2]["year"])
	}
}

func TestParseCSV_RejectsNonNumericCell(t *testing.T) {
	_, err := parseCSV(strings.NewReader("year,co2\n2000,abc\n"))
	if err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	if !strings.Contains(err.Error(), `"co2"`) {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestParseCSV_EmptyDocument(t *testing.T) {
	if _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestParseCSV_StripsByteOrderMark(t *testing.T) {
	df, err := parseCSV(strings.NewReader("\uFEFFYear,CO2\n2000,369.5\n"))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if df.Columns[0] != "year" {
		t.Errorf("Columns[0] = %q, want %q", df.Columns[0], "year")
	}
	if df.Rows[0]["year"] != 2000 {
		t.Errorf("row 0 year = %v, want 2000", df.Rows[0]["year"])
	}
}

func TestCSVAdapter_Collect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temperature.csv")
	if err := os.WriteFile(path, []byte("Year,Temp_anomaly\n2000,0.40\n2001,0.42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ad := &CSVAdapter{Path: path}
	df, err := ad.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(df.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(df.Rows))
	}
	if !df.HasColumn("temp_anomaly") {
		t.Errorf("expected temp_anomaly column, got %v", df.Columns)
	}
}

func TestCSVAdapter_MissingFile(t *testing.T) {
	ad := &CSVAdapter{Path: filepath.Join(t.TempDir(), "missing.csv")}
	if _, err := ad.Collect(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCSVAdapter_ValidatesConfig(t *testing.T) {
	ad := &CSVAdapter{}
	if _, err := ad.Collect(context.Background()); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestFromLocation(t *testing.T) {
	tests := []struct {
		location string
		wantName string
		wantErr  bool
	}{
		{"data/co2.csv", "csv", false},
		{"https://example.org/co2.csv", "http", false},
		{"http://example.org/co2.csv", "http", false},
		{"sqlite://data/climate.db?table=co2", "sqlite", false},
		{"sqlite://data/climate.db", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			ad, err := FromLocation(tt.location, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FromLocation(%q) expected error", tt.location)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromLocation(%q) error = %v", tt.location, err)
			}
			if ad.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", ad.Name(), tt.wantName)
			}
		})
	}
}
