package tabfile

import (
	"fmt"
	"regexp"
	"strings"
)

// CheckinRow is one raw in-person check-in: a free-form name and the
// timestamp cell as written. Timestamp parsing happens at processing time so
// one bad cell skips one row, not the file.
type CheckinRow struct {
	Name string
	When string
}

var dateLikeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}|^\d{1,2}/\d{1,2}/\d{4}`)

// ReadCheckins reads a check-in export (the survey-tool shape: a name column
// plus a "Start Date" timestamp column). Rows without a usable name are
// dropped.
func ReadCheckins(path string) ([]CheckinRow, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}

	whenHeader, _ := t.FindHeader(func(h string) bool {
		l := strings.ReplaceAll(strings.ToLower(h), " ", "")
		return strings.Contains(l, "startdate")
	})

	nameHeader, ok := t.FindHeader(func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), "name")
	})
	if !ok {
		nameHeader, ok = t.FindHeader(func(h string) bool {
			l := strings.ToLower(h)
			return strings.Contains(l, "name") && !strings.Contains(l, "date") && !strings.Contains(l, "time")
		})
	}
	if !ok {
		return nil, fmt.Errorf("check-in file %s: no name column (headers: %v)", path, t.Headers)
	}

	var rows []CheckinRow
	for _, row := range t.Rows {
		name := t.Cell(row, nameHeader)
		if name == "" || strings.EqualFold(name, "nan") || dateLikeRe.MatchString(name) {
			continue
		}
		rows = append(rows, CheckinRow{Name: name, When: t.Cell(row, whenHeader)})
	}
	return rows, nil
}
