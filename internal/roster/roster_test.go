package roster

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newTestRoster(t *testing.T, names ...string) *Roster {
	t.Helper()
	r := New()
	for _, n := range names {
		if _, err := r.Add(n, nil); err != nil {
			t.Fatalf("add %q: %v", n, err)
		}
	}
	return r
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"Acosta, Marco", Key{Last: "acosta", First: "marco"}},
		{"Marco Acosta", Key{Last: "acosta", First: "marco"}},
		{"ACOSTA,MARCO", Key{Last: "acosta", First: "marco"}},
		{"Budiman, Natasha Callista", Key{Last: "budiman", First: "natasha callista"}},
		{"Natasha Callista Budiman", Key{Last: "budiman", First: "natasha callista"}},
		{"  Marco   Acosta  ", Key{Last: "acosta", First: "marco"}},
		{"Marco", Key{First: "marco"}},
		{"", Key{}},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.in); got != tt.want {
			t.Errorf("KeyFor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	if _, err := r.Add("Marco Acosta", nil); err == nil {
		t.Error("expected duplicate key error for same student in other format")
	}
}

func TestUpsertMaxMerge(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	key := KeyFor("Acosta, Marco")

	if err := r.Upsert(key, "10.23", PointLate); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := r.Upsert(key, "10.23", PointFull); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got, _ := r.TotalFor(key); got != PointFull {
		t.Errorf("expected max-merge to keep 0.6, got %v", got)
	}

	// Lower value never overwrites a higher one.
	if err := r.Upsert(key, "10.23", PointLate); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got, _ := r.TotalFor(key); got != PointFull {
		t.Errorf("expected 0.6 after lower re-upsert, got %v", got)
	}

	// Idempotent.
	r.Upsert(key, "10.23", PointFull)
	if got, _ := r.TotalFor(key); got != PointFull {
		t.Errorf("expected 0.6 after repeated upsert, got %v", got)
	}
}

func TestUpsertCommutative(t *testing.T) {
	a := newTestRoster(t, "Acosta, Marco")
	b := newTestRoster(t, "Acosta, Marco")
	key := KeyFor("Acosta, Marco")

	a.Upsert(key, "10.23", PointLate)
	a.Upsert(key, "10.23", PointFull)
	b.Upsert(key, "10.23", PointFull)
	b.Upsert(key, "10.23", PointLate)

	ta, _ := a.TotalFor(key)
	tb, _ := b.TotalFor(key)
	if ta != tb {
		t.Errorf("order-dependent merge: %v vs %v", ta, tb)
	}
}

func TestUpsertRejectsArbitraryValues(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	if err := r.Upsert(KeyFor("Acosta, Marco"), "10.23", 0.5); err == nil {
		t.Error("expected error for point value outside {0, 0.2, 0.6}")
	}
}

func TestTotalInvariant(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	key := KeyFor("Acosta, Marco")
	r.Upsert(key, "10.21", PointFull)
	r.Upsert(key, "10.23", PointLate)
	r.Upsert(key, "10.28", PointFull)

	got, _ := r.TotalFor(key)
	if math.Abs(got-1.4) > 1e-9 {
		t.Errorf("total = %v, want 1.4", got)
	}

	if err := r.DeleteDate("10.23"); err != nil {
		t.Fatalf("delete date: %v", err)
	}
	got, _ = r.TotalFor(key)
	if math.Abs(got-1.2) > 1e-9 {
		t.Errorf("total after delete = %v, want 1.2", got)
	}
}

func TestDeleteDateNotFound(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	err := r.DeleteDate("12.25")
	if !errors.Is(err, ErrDateNotFound) {
		t.Errorf("expected ErrDateNotFound, got %v", err)
	}
}

func TestByPoint(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco", "Budiman, Natasha", "Chen, Wei")
	r.Upsert(KeyFor("Acosta, Marco"), "11.4", PointLate)
	r.Upsert(KeyFor("Budiman, Natasha"), "11.4", PointFull)
	r.Upsert(KeyFor("Chen, Wei"), "11.4", PointLate)

	late, err := r.ByPoint("11.4", PointLate)
	if err != nil {
		t.Fatalf("by point: %v", err)
	}
	if len(late) != 2 {
		t.Fatalf("expected 2 late students, got %d", len(late))
	}
	// Roster order, not update order.
	if late[0].DisplayName != "Acosta, Marco" || late[1].DisplayName != "Chen, Wei" {
		t.Errorf("wrong order: %s, %s", late[0].DisplayName, late[1].DisplayName)
	}

	if _, err := r.ByPoint("1.1", PointLate); !errors.Is(err, ErrDateNotFound) {
		t.Errorf("expected ErrDateNotFound for unknown column, got %v", err)
	}
}

func TestColumnsChronological(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	key := KeyFor("Acosta, Marco")
	r.Upsert(key, "11.4", PointFull)
	r.Upsert(key, "R,Oct.23", PointLate)
	r.Upsert(key, "9.30", PointFull)

	cols := r.Columns()
	want := []string{"9.30", "R,Oct.23", "11.4"}
	if len(cols) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(cols))
	}
	for i, w := range want {
		if cols[i].Label != w {
			t.Errorf("column %d = %q, want %q", i, cols[i].Label, w)
		}
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in         string
		month, day int
		ok         bool
	}{
		{"10.23", 10, 23, true},
		{"11.4", 11, 4, true},
		{"Oct.23", 10, 23, true},
		{"R,Oct.23", 10, 23, true},
		{"T,11.4", 11, 4, true},
		{"Total Points", 0, 0, false},
		{"Name", 0, 0, false},
		{"13.40", 0, 0, false},
		{"Oct.40", 0, 0, false},
	}
	for _, tt := range tests {
		m, d, ok := ParseLabel(tt.in)
		if ok != tt.ok || m != tt.month || d != tt.day {
			t.Errorf("ParseLabel(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.in, m, d, ok, tt.month, tt.day, tt.ok)
		}
	}
}

func TestResolveDateArg(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	r.EnsureColumn("R,Oct.23")

	// Exact label, date forms, and bare keys all land on the same column.
	for _, arg := range []string{"R,Oct.23", "r,oct.23", "10.23", "Oct.23", "2026-10-23", "10/23/2026"} {
		label, err := r.ResolveDateArg(arg)
		if err != nil {
			t.Fatalf("resolve %q: %v", arg, err)
		}
		if label != "R,Oct.23" {
			t.Errorf("resolve %q = %q, want R,Oct.23", arg, label)
		}
	}

	// Unknown date produces a fresh bare key.
	label, err := r.ResolveDateArg("2026-12-01")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if label != "12.1" {
		t.Errorf("new column label = %q, want 12.1", label)
	}

	if _, err := r.ResolveDateArg("not-a-date"); err == nil {
		t.Error("expected error for garbage date")
	}
}

func TestMatchColumn(t *testing.T) {
	r := newTestRoster(t, "Acosta, Marco")
	r.EnsureColumn("T,Nov.4")

	label, ok := r.MatchColumn(time.Date(2026, 11, 4, 0, 0, 0, 0, time.Local))
	if !ok || label != "T,Nov.4" {
		t.Errorf("MatchColumn = (%q, %v), want (T,Nov.4, true)", label, ok)
	}
	if _, ok := r.MatchColumn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)); ok {
		t.Error("expected no match for absent date")
	}
}
