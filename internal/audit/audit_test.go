package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestBeginFinishRecent(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	id, err := l.Begin(ctx, "nightly.att")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty run id")
	}

	outs := []Output{
		{Line: 1, Command: "LOAD ROSTER roster.csv", Text: "Roster loaded: 3 students"},
		{Line: 2, Command: "VIEW ROSTER", Text: "Roster: 3 students, 2 date columns"},
	}
	if err := l.Finish(ctx, id, true, "", outs); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if !runs[0].Success || runs[0].Script != "nightly.att" || runs[0].Commands != 2 {
		t.Errorf("unexpected run: %+v", runs[0])
	}
}

func TestOutputsOrdered(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	id, _ := l.Begin(ctx, "s.att")
	outs := []Output{
		{Line: 1, Command: "ECHO a", Text: "ECHO: a"},
		{Line: 2, Command: "ECHO b", Text: "ECHO: b"},
		{Line: 3, Command: "ECHO c", Text: "ECHO: c"},
	}
	if err := l.Finish(ctx, id, false, "line 4: boom", outs); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := l.Outputs(ctx, id)
	if err != nil {
		t.Fatalf("outputs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(got))
	}
	for i, o := range got {
		if o.Seq != i || o.Line != i+1 {
			t.Errorf("output %d out of order: %+v", i, o)
		}
	}

	runs, _ := l.Recent(ctx, 1)
	if runs[0].Success || runs[0].Error != "line 4: boom" {
		t.Errorf("failed run not recorded: %+v", runs[0])
	}
}
