// Package narrator generates the prose layer over mechanical combat results.
// The engine degrades gracefully: any generator failure is replaced by a stock
// deterministic line, never surfaced as a turn failure.
package narrator

import "context"

// Outcome is the narrative classification of a resolved attack.
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeCritical Outcome = "critical"
	OutcomeFumble   Outcome = "fumble"
)

// Request describes one resolved action for narration. Numeric fields inform
// the generator's tone; the contract is that generated prose never quotes
// literal roll, HP, or AC numbers.
type Request struct {
	Attacker          string
	Target            string
	ActionDescription string
	Outcome           Outcome
	Damage            int
	Healed            int
	BeforeHP          int
	AfterHP           int
	Killed            bool
	KnockedOut        bool
	LocationFlavor    string
}

// CombatantSummary is one line of the structured opening-narration context.
type CombatantSummary struct {
	DisplayName string
	Enemy       bool
	CurrentHP   int
	MaxHP       int
	Surprised   bool
}

// OpeningRequest carries the structured summary for the start-of-combat scene.
type OpeningRequest struct {
	Combatants     []CombatantSummary
	LocationFlavor string
}

// Generator produces combat prose. Implementations may call out to a language
// model; callers must treat every error as recoverable.
type Generator interface {
	Narrate(ctx context.Context, req Request) (string, error)
	NarrateOpening(ctx context.Context, req OpeningRequest) (string, error)
}
