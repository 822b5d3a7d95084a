package roster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date columns follow the spreadsheet conventions of the source rosters:
// a bare "M.D" key ("10.23", "11.4"), a month-name form ("Oct.23"), or either
// with a single-letter weekday prefix ("R,Oct.23", "T,11.4"). The label is
// what the sheet shows; Month and Day order the column chronologically.

// Column is one date column of the roster.
type Column struct {
	Label string
	Month int
	Day   int
}

var (
	numericLabelRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`)
	monthLabelRe   = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\.(\d{1,2})$`)
)

var monthAbbrevs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseLabel extracts month and day from a date column label. ok is false
// for non-date headers such as "ID" or "Total Points".
func ParseLabel(label string) (month, day int, ok bool) {
	s := strings.TrimSpace(label)
	// Strip a weekday prefix like "R," or "T,".
	if len(s) > 2 && s[1] == ',' {
		s = s[2:]
	}
	if m := numericLabelRe.FindStringSubmatch(s); m != nil {
		month, _ = strconv.Atoi(m[1])
		day, _ = strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return month, day, true
		}
		return 0, 0, false
	}
	if m := monthLabelRe.FindStringSubmatch(s); m != nil {
		for i, abbr := range monthAbbrevs {
			if strings.EqualFold(m[1], abbr) {
				day, _ = strconv.Atoi(m[2])
				if day >= 1 && day <= 31 {
					return i + 1, day, true
				}
				return 0, 0, false
			}
		}
	}
	return 0, 0, false
}

// NewColumn builds a Column from a label, tolerating labels that do not parse
// (they sort first and keep their insertion order).
func NewColumn(label string) Column {
	m, d, ok := ParseLabel(label)
	if !ok {
		return Column{Label: label}
	}
	return Column{Label: label, Month: m, Day: d}
}

// FormatKey renders a date as the bare "M.D" column key.
func FormatKey(t time.Time) string {
	return fmt.Sprintf("%d.%d", int(t.Month()), t.Day())
}

// ParseDate accepts the date forms the script language uses: YYYY-MM-DD,
// MM/DD/YYYY, MM-DD-YYYY, or a bare M.D key (current year assumed).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "1/2/2006", "1-2-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if m := numericLabelRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(time.Now().Year(), time.Month(month), day, 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// MatchColumn finds an existing column whose label denotes the given date,
// regardless of label style or weekday prefix.
func (r *Roster) MatchColumn(t time.Time) (string, bool) {
	for _, c := range r.columns {
		if c.Month == int(t.Month()) && c.Day == t.Day() {
			return c.Label, true
		}
	}
	return "", false
}

// ResolveDateArg maps a script DATE argument to a column label: an exact
// (case-insensitive) label match wins, then a column holding the same
// calendar date, and otherwise the bare "M.D" key for a new column. The
// returned label may name a column that does not exist yet.
func (r *Roster) ResolveDateArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	for _, c := range r.columns {
		if strings.EqualFold(c.Label, arg) {
			return c.Label, nil
		}
	}
	t, err := ParseDate(arg)
	if err != nil {
		// The argument may still be a parseable column label ("Oct.23").
		if m, d, ok := ParseLabel(arg); ok {
			for _, c := range r.columns {
				if c.Month == m && c.Day == d {
					return c.Label, nil
				}
			}
			return fmt.Sprintf("%d.%d", m, d), nil
		}
		return "", err
	}
	if label, ok := r.MatchColumn(t); ok {
		return label, nil
	}
	return FormatKey(t), nil
}
