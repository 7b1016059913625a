// Package dice provides the randomness abstraction, expression grammar, and
// roll-result types for the Skirmish combat engine.
package dice

import "fmt"

// Outcome classifies a single roll for downstream consumers.
type Outcome string

const (
	// OutcomeCrit marks a lone d20 that landed on its maximum face.
	OutcomeCrit Outcome = "crit"
	// OutcomeSuccess marks an attack roll that met or beat the target AC.
	OutcomeSuccess Outcome = "success"
	// OutcomeFail marks an attack roll that fell short of the target AC.
	OutcomeFail Outcome = "fail"
	// OutcomeFumble marks a lone d20 that landed on 1.
	OutcomeFumble Outcome = "fumble"
	// OutcomeNeutral marks damage, healing, and other non-contested rolls.
	OutcomeNeutral Outcome = "neutral"
	// OutcomeInitiative marks an initiative roll.
	OutcomeInitiative Outcome = "initiative"
)

// Roll holds the full audit trail for a single dice roll.
//
// Postcondition: Total == sum(Dice) + Modifier.
type Roll struct {
	Roller      string  `json:"roller"`      // display name of whoever rolled
	Expression  string  `json:"expression"`  // original expression, e.g. "2d6+3"
	Description string  `json:"description"` // what the roll was for
	Dice        []int   `json:"dice"`        // individual die results before modifier
	Modifier    int     `json:"modifier"`    // flat modifier (may be negative)
	Total       int     `json:"total"`
	Outcome     Outcome `json:"outcome"`
}

// String returns a human-readable audit string in the format:
//
//	"Goblin 1: 2d6+3 → [4 5] +3 = 12 (attack)"
func (r Roll) String() string {
	return fmt.Sprintf("%s: %s → %v %+d = %d (%s)",
		r.Roller, r.Expression, r.Dice, r.Modifier, r.Total, r.Description)
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
