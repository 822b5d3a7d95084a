package resolve

import (
	"strings"

	"attendscript/internal/roster"
)

// components splits a normalized name into first / middle / last parts.
// Middle initials ("S" or "S.") are tracked separately from full middle names
// so "Warren S Kyle" can agree with "Warren, Kyle Stephen".
type components struct {
	First         string
	Middle        string
	MiddleInitial string
	Last          string
}

func isInitial(tok string) bool {
	return len(tok) == 1 || (len(tok) == 2 && strings.HasSuffix(tok, "."))
}

func splitComponents(name string) components {
	name = strings.TrimSpace(name)
	var c components
	if i := strings.IndexByte(name, ','); i >= 0 {
		c.Last = strings.TrimSpace(name[:i])
		rest := strings.Fields(name[i+1:])
		if len(rest) > 0 {
			c.First = rest[0]
		}
		if len(rest) > 1 {
			if len(rest) == 2 && isInitial(rest[1]) {
				c.MiddleInitial = strings.TrimSuffix(rest[1], ".")
			} else {
				c.Middle = strings.Join(rest[1:], " ")
			}
		}
		return c
	}

	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
	case 1:
		c.Last = parts[0]
	default:
		c.First = parts[0]
		c.Last = parts[len(parts)-1]
		var middles []string
		for _, tok := range parts[1 : len(parts)-1] {
			if isInitial(tok) && c.MiddleInitial == "" {
				c.MiddleInitial = strings.TrimSuffix(tok, ".")
			} else {
				middles = append(middles, tok)
			}
		}
		c.Middle = strings.Join(middles, " ")
	}
	return c
}

// initial returns the single-letter middle initial, derived from the full
// middle name when no explicit initial was given.
func (c components) initial() string {
	if c.MiddleInitial != "" {
		return strings.ToLower(c.MiddleInitial)
	}
	if c.Middle != "" {
		return strings.ToLower(c.Middle[:1])
	}
	return ""
}

func (c components) middleBlock() string {
	if c.Middle != "" {
		return c.Middle
	}
	return c.MiddleInitial
}

// componentScore rates how well a raw name agrees with a roster name by
// comparing first/last components (in both orders) and then middle names.
// Confidence tiers follow the resolution ladder: 1.0 exact incl. middle,
// then progressively weaker middle agreement down to 0.90 for a bare
// first+last match. Zero means the components rule the pair out.
func componentScore(raw, rosterName string) float64 {
	a := splitComponents(roster.Normalize(raw))
	b := splitComponents(roster.Normalize(rosterName))
	if a.First == "" || a.Last == "" || b.First == "" || b.Last == "" {
		return 0
	}

	normal := a.First == b.First && a.Last == b.Last
	swapped := a.First == b.Last && a.Last == b.First
	if !normal && !swapped {
		return 0
	}

	am, bm := a.middleBlock(), b.middleBlock()
	if am == "" || bm == "" {
		return 0.95
	}
	if am == bm {
		return 1.0
	}
	if strings.HasPrefix(am, bm) || strings.HasPrefix(bm, am) {
		return 0.96
	}
	if strings.Fields(am)[0] == strings.Fields(bm)[0] {
		return 0.94
	}
	if a.initial() != "" && a.initial() == b.initial() {
		return 0.92
	}
	// First and last agree outright; conflicting middles only dent confidence.
	return 0.90
}
