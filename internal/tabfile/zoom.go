package tabfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ZoomRow is one participation record: a display name and the duration cell
// as written ("45:00", "12:30", a bare minute count).
type ZoomRow struct {
	Name     string
	Duration string
}

// Zoom exports carry junk rows around the participant list; these patterns
// recognize them.
var (
	headerNames = map[string]bool{
		"name": true, "participant": true, "participants": true, "total": true,
		"summary": true, "meeting": true, "zoom": true, "class": true,
		"attendance": true, "report": true,
	}
	meetingTitleRe = regexp.MustCompile(`(?i)(class|zoom|meeting|session)\s*\d+`)
)

// ReadZoom reads a Zoom participation report: a name column and a
// duration column. Header remnants, meeting titles, numeric "names" and
// fragments are skipped; the count of skipped rows is returned for the
// output log.
func ReadZoom(path string) (rows []ZoomRow, skipped int, err error) {
	t, err := Load(path)
	if err != nil {
		return nil, 0, err
	}

	nameHeader, ok := t.FindHeader(func(h string) bool {
		l := strings.ToLower(h)
		return strings.Contains(l, "name") && !strings.Contains(l, "guest")
	})
	if !ok {
		return nil, 0, fmt.Errorf("zoom file %s: no name column (headers: %v)", path, t.Headers)
	}
	durHeader, ok := t.FindHeader(func(h string) bool {
		l := strings.ToLower(h)
		return strings.Contains(l, "duration") || (strings.Contains(l, "time") && !strings.Contains(l, "guest"))
	})
	if !ok {
		return nil, 0, fmt.Errorf("zoom file %s: no duration column (headers: %v)", path, t.Headers)
	}

	for _, row := range t.Rows {
		name := t.Cell(row, nameHeader)
		if !plausibleParticipant(name) {
			if name != "" {
				skipped++
			}
			continue
		}
		rows = append(rows, ZoomRow{Name: name, Duration: t.Cell(row, durHeader)})
	}
	return rows, skipped, nil
}

func plausibleParticipant(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "nan") {
		return false
	}
	l := strings.ToLower(name)
	if headerNames[l] || strings.HasPrefix(l, "name (") || strings.Contains(l, "original name") {
		return false
	}
	if meetingTitleRe.MatchString(l) {
		return false
	}
	if _, err := strconv.ParseFloat(name, 64); err == nil {
		return false
	}
	if n := utf8.RuneCountInString(name); n < 3 || n > 100 {
		return false
	}
	return true
}
