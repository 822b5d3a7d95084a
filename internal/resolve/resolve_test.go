package resolve

import (
	"context"
	"errors"
	"testing"

	"attendscript/internal/roster"
)

func newTestRoster(t *testing.T, names ...string) *roster.Roster {
	t.Helper()
	r := roster.New()
	for _, n := range names {
		if _, err := r.Add(n, nil); err != nil {
			t.Fatalf("add %q: %v", n, err)
		}
	}
	return r
}

// stubMatcher is a deterministic stand-in for the AI tier.
type stubMatcher struct {
	answer string
	err    error
	calls  int
}

func (s *stubMatcher) Match(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func TestResolveExactBothOrders(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco", "Budiman, Natasha")
	r := New(nil, nil)

	for _, raw := range []string{"Acosta, Marco", "Marco Acosta", "ACOSTA,MARCO", "marco acosta"} {
		e, err := r.Resolve(context.Background(), raw, ros)
		if err != nil {
			t.Fatalf("resolve %q: %v", raw, err)
		}
		if e.DisplayName != "Acosta, Marco" {
			t.Errorf("resolve %q = %q, want Acosta, Marco", raw, e.DisplayName)
		}
	}
}

func TestResolveMissingMiddleName(t *testing.T) {
	ros := newTestRoster(t, "Budiman, Natasha Callista", "Acosta, Marco")
	r := New(nil, nil)

	for _, raw := range []string{"Natasha Budiman", "Budiman, Natasha", "Natasha C Budiman"} {
		e, err := r.Resolve(context.Background(), raw, ros)
		if err != nil {
			t.Fatalf("resolve %q: %v", raw, err)
		}
		if e.DisplayName != "Budiman, Natasha Callista" {
			t.Errorf("resolve %q = %q, want the Budiman entry", raw, e.DisplayName)
		}
	}
}

func TestResolveSwappedOrder(t *testing.T) {
	// "Warren S. Kyle" written First-Last against roster "Warren, Kyle Stephen".
	ros := newTestRoster(t, "Warren, Kyle Stephen", "Acosta, Marco")
	r := New(nil, nil)

	e, err := r.Resolve(context.Background(), "Warren S. Kyle", ros)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if e.DisplayName != "Warren, Kyle Stephen" {
		t.Errorf("got %q, want Warren, Kyle Stephen", e.DisplayName)
	}
}

func TestResolveTypo(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco", "Nguyen, Linh")
	r := New(nil, nil)

	e, err := r.Resolve(context.Background(), "Marco Acsota", ros)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if e.DisplayName != "Acosta, Marco" {
		t.Errorf("got %q, want Acosta, Marco", e.DisplayName)
	}
}

func TestResolveNotFound(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco")
	r := New(nil, nil)

	_, err := r.Resolve(context.Background(), "Completely Unrelated", ros)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "   ", ros); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for blank name, got %v", err)
	}
}

func TestResolveDeterministic(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco", "Acosta, Maria", "Budiman, Natasha")
	r := New(nil, nil)

	var first *roster.Entry
	for i := 0; i < 10; i++ {
		e, err := r.Resolve(context.Background(), "Maria Acosta", ros)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if first == nil {
			first = e
		} else if e != first {
			t.Fatal("resolution is not deterministic across runs")
		}
	}
	if first.DisplayName != "Acosta, Maria" {
		t.Errorf("got %q, want Acosta, Maria", first.DisplayName)
	}
}

func TestResolveAITierConsulted(t *testing.T) {
	ros := newTestRoster(t, "Budiman, Natasha Callista")
	stub := &stubMatcher{answer: "Budiman, Natasha Callista"}
	r := New(stub, nil)

	// A nickname no deterministic tier can catch.
	e, err := r.Resolve(context.Background(), "Tasha B.", ros)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if e.DisplayName != "Budiman, Natasha Callista" {
		t.Errorf("got %q", e.DisplayName)
	}
	if stub.calls != 1 {
		t.Errorf("matcher called %d times, want 1", stub.calls)
	}
}

func TestResolveAITierNotConsultedOnExact(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco")
	stub := &stubMatcher{answer: "Acosta, Marco"}
	r := New(stub, nil)

	if _, err := r.Resolve(context.Background(), "Marco Acosta", ros); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("matcher consulted on an exact match (%d calls)", stub.calls)
	}
}

func TestResolveAIAnswerMustNameRosterEntry(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco")
	stub := &stubMatcher{answer: "Somebody Else"}
	r := New(stub, nil)

	if _, err := r.Resolve(context.Background(), "Tasha B.", ros); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound when AI names a stranger, got %v", err)
	}
}

func TestResolveAIFailureIsNoMatch(t *testing.T) {
	ros := newTestRoster(t, "Acosta, Marco")
	stub := &stubMatcher{err: errors.New("quota exceeded")}
	r := New(stub, nil)

	if _, err := r.Resolve(context.Background(), "Tasha B.", ros); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on AI failure, got %v", err)
	}
}

func TestComponentScoreTiers(t *testing.T) {
	tests := []struct {
		raw, roster string
		want        float64
	}{
		{"Budiman, Natasha Callista", "Budiman, Natasha Callista", 1.0},
		{"Natasha Budiman", "Budiman, Natasha Callista", 0.95},
		{"Natasha C Budiman", "Budiman, Natasha Callista", 0.96},
		{"Marco Acosta", "Budiman, Natasha Callista", 0},
		{"Marco", "Acosta, Marco", 0},
	}
	for _, tt := range tests {
		if got := componentScore(tt.raw, tt.roster); got != tt.want {
			t.Errorf("componentScore(%q, %q) = %v, want %v", tt.raw, tt.roster, got, tt.want)
		}
	}
}
