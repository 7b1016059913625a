package roster

import (
	"strings"

	"github.com/emberfall/skirmish/internal/game/rules"
)

// Resolution is the outcome of resolving one target reference.
type Resolution struct {
	// ID is the resolved canonical combatant ID; empty when unresolved.
	ID string
	// Ambiguous is true when the reference matched several creatures; Matches
	// then lists their display names for the caller to present back.
	Ambiguous bool
	Matches   []string
}

// Resolved reports whether the reference mapped to exactly one combatant.
func (r Resolution) Resolved() bool { return r.ID != "" && !r.Ambiguous }

// ResolveTarget maps a natural-language, ordinal, or canonical reference to a
// unique combatant ID. Attempts, in order:
//
//  1. exact canonical-ID match against the enemy list;
//  2. canonical-ID-to-display-name derivation — only against enemies whose
//     base name matches the ID's base segment, so "lobo-1" can never land on
//     a goblin's display name;
//  3. exact case/accent-insensitive match against a display name in the
//     initiative order;
//  4. base-name-only match — unique species resolves directly, multiple
//     creatures of the species return an ambiguous Resolution.
//
// Spanish ordinal prefixes ("el segundo goblin") are rewritten before
// matching. ResolveTarget never guesses among ambiguous candidates; callers
// driving AI turns pick the first candidate themselves as their fallback.
//
// Precondition: order carries the display names assigned at initiative time.
func ResolveTarget(reference string, enemies []rules.CharacterState, order []rules.Combatant) Resolution {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return Resolution{}
	}

	named := make([]Named, len(enemies))
	for i, e := range enemies {
		named[i] = Named{ID: e.ID, Name: e.Name}
	}
	ref = RewriteOrdinals(ref, named)
	normRef := Normalize(ref)

	// (1) Exact canonical ID.
	for _, e := range enemies {
		if e.ID == ref {
			return Resolution{ID: e.ID}
		}
	}

	// (2) Canonical-ID pattern: "{base}-{n}" names "{Base} {n}".
	for _, e := range enemies {
		if display, ok := DisplayFromCanonicalID(ref, e.Name); ok {
			if idOf := findByDisplay(order, display); idOf != "" {
				return Resolution{ID: idOf}
			}
		}
	}

	// (3) Exact display-name match in the initiative order.
	for _, c := range order {
		if c.IsEnemy() && Normalize(c.DisplayName) == normRef {
			return Resolution{ID: c.ID}
		}
	}

	// (4) Base-name-only match.
	var candidates []rules.Combatant
	for _, c := range order {
		if !c.IsEnemy() {
			continue
		}
		base := strings.TrimRightFunc(Normalize(c.DisplayName), func(r rune) bool {
			return r == ' ' || (r >= '0' && r <= '9')
		})
		if base == normRef {
			candidates = append(candidates, c)
		}
	}
	switch len(candidates) {
	case 0:
		return Resolution{}
	case 1:
		return Resolution{ID: candidates[0].ID}
	default:
		matches := make([]string, len(candidates))
		for i, c := range candidates {
			matches[i] = c.DisplayName
		}
		return Resolution{Ambiguous: true, Matches: matches}
	}
}

func findByDisplay(order []rules.Combatant, display string) string {
	want := Normalize(display)
	for _, c := range order {
		if Normalize(c.DisplayName) == want {
			return c.ID
		}
	}
	return ""
}
