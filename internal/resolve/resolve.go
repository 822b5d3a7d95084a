// Package resolve matches free-form student names against roster entries.
// Resolution runs in tiers: exact canonical-key lookup, component matching,
// fuzzy scoring, and finally an optional AI-assisted Matcher. Everything but
// the Matcher tier is deterministic.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"attendscript/internal/roster"
)

// ErrNotFound reports that no roster entry matched. Callers treat it as a
// recoverable, row-level condition.
var ErrNotFound = errors.New("no matching student")

// Acceptance thresholds for the fuzzy tier. A candidate must both clear the
// floor and beat the runner-up by the margin, otherwise resolution falls
// through to the next tier.
const (
	acceptThreshold      = 0.80
	disambiguationMargin = 0.05
)

// Matcher is the optional AI-assisted tier. It returns one of the candidate
// names, or "" when it cannot decide. Implementations may fail; failures are
// treated as "no match".
type Matcher interface {
	Match(ctx context.Context, rawName string, candidates []string) (string, error)
}

// Resolver matches names against a roster. The zero Matcher (nil) disables
// the AI tier.
type Resolver struct {
	matcher Matcher
	log     *zap.Logger
}

// New builds a Resolver. Either argument may be nil.
func New(matcher Matcher, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{matcher: matcher, log: log}
}

// Resolve maps a raw name to a roster entry, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, rawName string, ros *roster.Roster) (*roster.Entry, error) {
	raw := strings.TrimSpace(rawName)
	if raw == "" {
		return nil, ErrNotFound
	}

	// Tier 1: exact canonical key.
	if e, ok := ros.Lookup(roster.KeyFor(raw)); ok {
		return e, nil
	}

	// Tiers 2+3: score every entry; component agreement dominates, fuzzy
	// similarity fills in for typos and truncations.
	var best, second float64
	var bestEntry *roster.Entry
	for _, e := range ros.Entries() {
		score := componentScore(raw, e.DisplayName)
		if f := fuzzyScore(raw, e); f > score {
			score = f
		}
		if score > best {
			second = best
			best = score
			bestEntry = e
		} else if score > second {
			second = score
		}
	}
	if bestEntry != nil && best >= acceptThreshold && best-second >= disambiguationMargin {
		return bestEntry, nil
	}

	// Tier 4: AI-assisted matching, if configured.
	if r.matcher != nil {
		if e, ok := r.matchWithAI(ctx, raw, ros); ok {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *Resolver) matchWithAI(ctx context.Context, raw string, ros *roster.Roster) (*roster.Entry, bool) {
	candidates := make([]string, 0, ros.Len())
	for _, e := range ros.Entries() {
		candidates = append(candidates, e.DisplayName)
	}
	name, err := r.matcher.Match(ctx, raw, candidates)
	if err != nil {
		r.log.Warn("ai name matching failed", zap.String("name", raw), zap.Error(err))
		return nil, false
	}
	if name == "" {
		return nil, false
	}
	// The answer must name exactly one roster entry.
	var found *roster.Entry
	for _, e := range ros.Entries() {
		if strings.EqualFold(strings.TrimSpace(e.DisplayName), strings.TrimSpace(name)) {
			if found != nil {
				return nil, false
			}
			found = e
		}
	}
	if found == nil {
		return nil, false
	}
	return found, true
}

// fuzzyScore rates a raw name against an entry by two independent signals:
// edit-distance similarity on the (last, first) components in either order,
// and order-independent token overlap. The stronger signal wins; overlap
// covers reordered or extra tokens, the component ratio covers typos.
func fuzzyScore(raw string, e *roster.Entry) float64 {
	rk := roster.KeyFor(raw)
	ek := e.Key

	var comp float64
	if rk.Last != "" && ek.Last != "" {
		comp = (ratio(rk.Last, ek.Last) + ratio(rk.First, ek.First)) / 2
		// The raw name may have its order misdetected; try the swap too.
		if sw := (ratio(rk.Last, ek.First) + ratio(rk.First, ek.Last)) / 2; sw > comp {
			comp = sw
		}
	}
	if overlap := tokenOverlap(roster.Normalize(raw), roster.Normalize(e.DisplayName)); overlap > comp {
		return overlap
	}
	return comp
}

// ratio is a similarity in [0,1] from levenshtein distance.
func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	n := len([]rune(a))
	if m := len([]rune(b)); m > n {
		n = m
	}
	if n == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(n)
}

func tokenOverlap(a, b string) float64 {
	at := strings.Fields(strings.ReplaceAll(a, ",", " "))
	bt := strings.Fields(strings.ReplaceAll(b, ",", " "))
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	set := make(map[string]bool, len(bt))
	for _, t := range bt {
		set[t] = true
	}
	var hits int
	for _, t := range at {
		if set[t] {
			hits++
		}
	}
	union := len(at) + len(bt) - hits
	return float64(hits) / float64(union)
}
