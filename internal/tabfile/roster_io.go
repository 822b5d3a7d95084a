package tabfile

import (
	"fmt"
	"strconv"
	"strings"

	"attendscript/internal/roster"
)

// Header names the roster schema reserves; everything else is either a date
// column (recognized by its label shape) or an opaque passthrough column.
const totalHeader = "Total Points"

func isIndexHeader(h string) bool {
	return strings.HasPrefix(strings.ToLower(h), "unnamed")
}

func isNameHeader(h string) bool {
	l := strings.ToLower(strings.TrimSpace(h))
	if isIndexHeader(l) {
		return false
	}
	switch l {
	case "id", "email", "major", "level":
		return false
	}
	return strings.Contains(l, "name") || strings.Contains(l, "student")
}

// LoadRoster reads a roster spreadsheet into the store. Non-attendance
// columns round-trip untouched; the Total Points column is dropped and
// recomputed on save. Cells holding anything other than the three legal
// point values load as absent.
func LoadRoster(path string) (*roster.Roster, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("roster %s has no header row", path)
	}

	nameHeader, ok := t.FindHeader(isNameHeader)
	if !ok {
		// The source sheets keep names in the third column when the header
		// is unhelpful.
		if len(t.Headers) > 2 {
			nameHeader = t.Headers[2]
		} else {
			nameHeader = t.Headers[0]
		}
	}

	r := roster.New()
	r.NameHeader = nameHeader
	var dateHeaders []string
	for _, h := range t.Headers {
		if h == nameHeader {
			r.Headers = append(r.Headers, h)
			continue
		}
		if h == totalHeader || isIndexHeader(h) {
			continue
		}
		if _, _, ok := roster.ParseLabel(h); ok {
			dateHeaders = append(dateHeaders, h)
			continue
		}
		r.Headers = append(r.Headers, h)
	}
	for _, h := range dateHeaders {
		r.EnsureColumn(h)
	}

	for _, row := range t.Rows {
		name := t.Cell(row, nameHeader)
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		extra := make(map[string]string)
		for _, h := range r.Headers {
			if h != nameHeader {
				extra[h] = t.Cell(row, h)
			}
		}
		e, err := r.Add(name, extra)
		if err != nil {
			return nil, fmt.Errorf("roster %s: %w", path, err)
		}
		for _, h := range dateHeaders {
			if v, ok := parsePoint(t.Cell(row, h)); ok && v != roster.PointAbsent {
				e.Points[h] = v
			}
		}
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("roster %s has no students", path)
	}
	return r, nil
}

// parsePoint snaps a cell to one of the legal point values.
func parsePoint(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	for _, legal := range []float64{roster.PointAbsent, roster.PointLate, roster.PointFull} {
		if v > legal-0.01 && v < legal+0.01 {
			return legal, true
		}
	}
	return 0, false
}

// SaveRoster writes the roster with passthrough columns first (in original
// order), date columns chronologically, and a derived Total Points column.
func SaveRoster(r *roster.Roster, path string) error {
	cols := r.Columns()
	headers := make([]string, 0, len(r.Headers)+len(cols)+1)
	headers = append(headers, r.Headers...)
	for _, c := range cols {
		headers = append(headers, c.Label)
	}
	headers = append(headers, totalHeader)

	t := &Table{Headers: headers}
	for _, e := range r.Entries() {
		row := make([]string, 0, len(headers))
		for _, h := range r.Headers {
			if h == r.NameHeader {
				row = append(row, e.DisplayName)
			} else {
				row = append(row, e.Extra[h])
			}
		}
		for _, c := range cols {
			row = append(row, formatPoint(e.Points[c.Label]))
		}
		row = append(row, formatPoint(e.Total()))
		t.Rows = append(t.Rows, row)
	}
	return t.Save(path)
}

func formatPoint(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
