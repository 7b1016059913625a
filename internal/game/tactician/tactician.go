// Package tactician decides what an AI-controlled combatant does on its turn.
// Enemy and companion deciders differ only in prompt and allegiance; both
// return a target reference plus a natural-language action description. Any
// dice advice a decider returns is advisory: the action resolver always
// recomputes the canonical mechanical numbers.
package tactician

import "context"

// Opponent is a living combatant the decider can see, with HP expressed
// qualitatively so language-model deciders never receive raw numbers.
type Opponent struct {
	ID          string
	DisplayName string
	// Condition is the qualitative HP band, e.g. "herido".
	Condition string
}

// Situation is everything a decider may consider for one turn.
type Situation struct {
	ActorName      string
	Allies         []Opponent
	Opponents      []Opponent
	LocationFlavor string
	// Transcript is the tail of the recent conversation, oldest first.
	Transcript []string
	Spells     []string
	Inventory  []string
}

// Decision is a decider's plan for the turn. A decision with neither a target
// nor an action counts as "no action taken". A decision describing inaction
// with living opponents available is overridden by the turn processor.
type Decision struct {
	ActionDescription string
	TargetReference   string
	// AdviceRolls are suggested dice expressions; never trusted for mechanics.
	AdviceRolls []string
}

// Decider plans one AI turn.
type Decider interface {
	Decide(ctx context.Context, sit Situation) (Decision, error)
}
