// Package roster holds the in-memory attendance table: students keyed by a
// canonical (last, first) name tuple, one point value per date column, and
// passthrough spreadsheet columns the store neither reads nor validates.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Attendance point values. A date cell holds exactly one of these.
const (
	PointAbsent = 0.0
	PointLate   = 0.2
	PointFull   = 0.6
)

// ErrDateNotFound is returned when an operation names a date column the
// roster does not have.
var ErrDateNotFound = errors.New("date column not found")

// Key is a student's canonical identity: normalized last name plus
// normalized first/middle name block, order-independent of the input format.
type Key struct {
	Last  string
	First string
}

func (k Key) String() string {
	if k.Last == "" {
		return k.First
	}
	return k.Last + "," + k.First
}

// IsZero reports whether the key carries no name at all.
func (k Key) IsZero() bool { return k.Last == "" && k.First == "" }

// KeyFor derives the canonical key from a free-form name. A comma signals
// "Last, First ..." order; without one the final token is taken as the last
// name. A single token is treated as a first-name-only fragment.
func KeyFor(name string) Key {
	name = Normalize(name)
	if i := strings.IndexByte(name, ','); i >= 0 {
		return Key{
			Last:  strings.TrimSpace(name[:i]),
			First: strings.TrimSpace(name[i+1:]),
		}
	}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return Key{}
	case 1:
		return Key{First: parts[0]}
	default:
		return Key{Last: parts[len(parts)-1], First: strings.Join(parts[:len(parts)-1], " ")}
	}
}

// Normalize case-folds a name, strips punctuation except the comma separating
// last and first, and collapses runs of whitespace.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ',':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Entry is one student row.
type Entry struct {
	Key         Key
	DisplayName string // name string as first loaded
	Points      map[string]float64
	Extra       map[string]string // passthrough columns, keyed by header
}

// Total is the sum of the entry's per-date points. Always derived, never stored.
func (e *Entry) Total() float64 {
	var sum float64
	for _, v := range e.Points {
		sum += v
	}
	return sum
}

// Roster is the student × date-column table.
type Roster struct {
	// Headers are the non-date column names in original sheet order
	// (ID, name, email, ...). NameHeader is the one holding student names.
	Headers    []string
	NameHeader string

	columns []Column
	entries []*Entry
	index   map[Key]*Entry
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{index: make(map[Key]*Entry)}
}

// Add appends a student and returns the new entry. The canonical key must be
// unique within the roster.
func (r *Roster) Add(displayName string, extra map[string]string) (*Entry, error) {
	key := KeyFor(displayName)
	if key.IsZero() {
		return nil, fmt.Errorf("empty student name")
	}
	if _, ok := r.index[key]; ok {
		return nil, fmt.Errorf("duplicate student: %s", key)
	}
	e := &Entry{
		Key:         key,
		DisplayName: strings.TrimSpace(displayName),
		Points:      make(map[string]float64),
		Extra:       extra,
	}
	r.entries = append(r.entries, e)
	r.index[key] = e
	return e, nil
}

// Entries returns students in roster (load) order.
func (r *Roster) Entries() []*Entry { return r.entries }

// Len is the number of students.
func (r *Roster) Len() int { return len(r.entries) }

// Lookup finds a student by canonical key.
func (r *Roster) Lookup(key Key) (*Entry, bool) {
	e, ok := r.index[key]
	return e, ok
}

// Columns returns date columns in chronological order.
func (r *Roster) Columns() []Column { return r.columns }

// HasColumn reports whether a date column with the given label exists.
func (r *Roster) HasColumn(label string) bool {
	for _, c := range r.columns {
		if c.Label == label {
			return true
		}
	}
	return false
}

// EnsureColumn adds a date column if absent, keeping columns ordered by the
// underlying date rather than by label.
func (r *Roster) EnsureColumn(label string) {
	if r.HasColumn(label) {
		return
	}
	col := NewColumn(label)
	r.columns = append(r.columns, col)
	sort.SliceStable(r.columns, func(i, j int) bool {
		a, b := r.columns[i], r.columns[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Day < b.Day
	})
}

// validPoint reports whether v is one of the three allowed constants.
func validPoint(v float64) bool {
	return v == PointAbsent || v == PointLate || v == PointFull
}

// Upsert records a point value for (student, date). A missing column is
// created. When a value already exists the larger of old and new is kept, so
// re-processing the same source file is idempotent and order-independent.
func (r *Roster) Upsert(key Key, dateLabel string, points float64) error {
	e, ok := r.index[key]
	if !ok {
		return fmt.Errorf("student not in roster: %s", key)
	}
	if !validPoint(points) {
		return fmt.Errorf("invalid point value %v (want 0, 0.2 or 0.6)", points)
	}
	r.EnsureColumn(dateLabel)
	if cur, ok := e.Points[dateLabel]; !ok || points > cur {
		e.Points[dateLabel] = points
	}
	return nil
}

// DeleteDate removes a date column from the roster and from every entry.
func (r *Roster) DeleteDate(label string) error {
	idx := -1
	for i, c := range r.columns {
		if c.Label == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrDateNotFound, label)
	}
	r.columns = append(r.columns[:idx], r.columns[idx+1:]...)
	for _, e := range r.entries {
		delete(e.Points, label)
	}
	return nil
}

// ByPoint returns the entries whose value at the given date equals points,
// in roster order.
func (r *Roster) ByPoint(label string, points float64) ([]*Entry, error) {
	if !r.HasColumn(label) {
		return nil, fmt.Errorf("%w: %s", ErrDateNotFound, label)
	}
	var out []*Entry
	for _, e := range r.entries {
		if v, ok := e.Points[label]; ok && v == points {
			out = append(out, e)
		} else if !ok && points == PointAbsent {
			out = append(out, e)
		}
	}
	return out, nil
}

// TotalFor returns the derived point total for a student.
func (r *Roster) TotalFor(key Key) (float64, error) {
	e, ok := r.index[key]
	if !ok {
		return 0, fmt.Errorf("student not in roster: %s", key)
	}
	return e.Total(), nil
}
