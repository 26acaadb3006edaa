// Package fetcher parses tabular prospect import files (CSV, XLSX) into
// header-plus-rows form for batch ingestion.
package fetcher

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a parsed import file: one header row and zero or more data
// rows. Rows may be ragged; callers index defensively.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses an import file by extension.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("fetcher: %s: unsupported import type (want .csv or .xlsx)", path)
	}
}

// ReadCSV parses a CSV import file. Variable-width rows are allowed;
// quoting follows encoding/csv defaults.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse csv %s", path)
	}
	return tableFromRows(path, rows)
}

// ReadXLSX parses the first sheet of an XLSX import file.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("fetcher: %s: no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return tableFromRows(path, rows)
}

func tableFromRows(path string, rows [][]string) (*Table, error) {
	if len(rows) < 2 {
		return nil, eris.Errorf("fetcher: %s: need a header row and at least one data row", path)
	}
	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}
