// Package tabfile reads and writes the tabular files the attendance system
// consumes: roster spreadsheets, in-person check-in exports, and Zoom
// participation reports, in CSV or XLSX form.
package tabfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a loosely typed sheet: a header row plus string cells. Rows may
// be ragged; missing cells read as "".
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value of the named column in a row, or "".
func (t *Table) Cell(row []string, header string) string {
	for i, h := range t.Headers {
		if h == header && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// FindHeader returns the first header satisfying pred.
func (t *Table) FindHeader(pred func(string) bool) (string, bool) {
	for _, h := range t.Headers {
		if pred(h) {
			return h, true
		}
	}
	return "", false
}

// Load reads a CSV or XLSX file (chosen by extension) into a Table.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx", ".xls", ".xlsm":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Headers: trimAll(records[0]), Rows: records[1:]}, nil
}

func loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	return &Table{Headers: trimAll(rows[0]), Rows: rows[1:]}, nil
}

// Save writes the table as CSV or XLSX, chosen by extension.
func (t *Table) Save(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return t.saveCSV(path)
	case ".xlsx":
		return t.saveXLSX(path)
	default:
		return fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func (t *Table) saveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func (t *Table) saveXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	writeRow := func(n int, cells []string) error {
		addr, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(cells))
		for i, c := range cells {
			vals[i] = c
		}
		return f.SetSheetRow(sheet, addr, &vals)
	}

	if err := writeRow(1, t.Headers); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i, row := range t.Rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
