// Package trigger decides whether an encounter should begin and which side is
// surprised. The evaluators are pure functions over what the exploration and
// interaction layers observed; nothing here mutates game state.
package trigger

import (
	"strings"

	"github.com/emberfall/skirmish/internal/game/roster"
)

// Side names the side caught off guard when combat starts.
type Side string

const (
	SideNone    Side = "none"
	SideParty   Side = "party"
	SideEnemies Side = "enemies"
)

// Reasons attached to a positive decision for logging and narration context.
const (
	ReasonProximity      = "proximity"
	ReasonStealthFailure = "stealth failure"
	ReasonAmbush         = "ambush"
	ReasonMimicRevealed  = "mimic revealed"
	ReasonEscalation     = "escalation"
	ReasonPlayerAttack   = "player attack"
)

// Decision is the evaluator's answer: whether to start combat, why, and who
// is surprised.
type Decision struct {
	Start         bool
	Reason        string
	SurprisedSide Side
}

// none is the negative decision.
func none() Decision { return Decision{SurprisedSide: SideNone} }

// ExplorationObservation is what the exploration layer saw on entering or
// scanning a location.
type ExplorationObservation struct {
	// HostilesVisible is true when non-hidden hostile entities are in sight.
	HostilesVisible bool
	// StealthAttempted and StealthFailed describe an explicit sneak attempt.
	StealthAttempted bool
	StealthFailed    bool
	// UndetectedAmbush is true when an ambush-type hazard is present and the
	// party has not detected it.
	UndetectedAmbush bool
}

// EvaluateExploration decides combat entry from exploration. Visible hostiles
// start combat with no surprise, or surprise the party when an explicit
// stealth attempt failed. An undetected ambush starts combat surprising the
// party, but only when no hostiles were already visible; an ambush cannot
// coexist with enemies in plain sight.
func EvaluateExploration(obs ExplorationObservation) Decision {
	if obs.HostilesVisible {
		if obs.StealthAttempted && obs.StealthFailed {
			return Decision{Start: true, Reason: ReasonStealthFailure, SurprisedSide: SideParty}
		}
		return Decision{Start: true, Reason: ReasonProximity, SurprisedSide: SideNone}
	}
	if obs.UndetectedAmbush {
		return Decision{Start: true, Reason: ReasonAmbush, SurprisedSide: SideParty}
	}
	return none()
}

// Disguised is a hidden enemy posing as an object, matchable by ID or keyword.
type Disguised struct {
	ID       string
	Keywords []string
}

// InteractionObservation is what the interaction layer saw the player do.
type InteractionObservation struct {
	// Target is the player's interaction target, an ID or free-text noun.
	Target string
	// Disguised lists hidden enemies posing as interactable objects.
	Disguised []Disguised
	// Escalated is true when a social interaction turned violent.
	Escalated bool
}

// EvaluateInteraction decides combat entry from an interaction. Touching a
// disguised enemy reveals it and surprises the party; a social escalation
// starts combat with no surprise.
func EvaluateInteraction(obs InteractionObservation) Decision {
	target := roster.Normalize(obs.Target)
	if target != "" {
		for _, d := range obs.Disguised {
			if matchesDisguise(target, d) {
				return Decision{Start: true, Reason: ReasonMimicRevealed, SurprisedSide: SideParty}
			}
		}
	}
	if obs.Escalated {
		return Decision{Start: true, Reason: ReasonEscalation, SurprisedSide: SideNone}
	}
	return none()
}

func matchesDisguise(target string, d Disguised) bool {
	if target == roster.Normalize(d.ID) {
		return true
	}
	for _, kw := range d.Keywords {
		norm := roster.Normalize(kw)
		if norm != "" && strings.Contains(target, norm) {
			return true
		}
	}
	return false
}

// EvaluatePlayerAction decides combat entry from a direct player action. An
// action of explicit combat intent outside combat starts the encounter with
// the player side surprising the enemy.
func EvaluatePlayerAction(combatIntent, inCombat bool) Decision {
	if combatIntent && !inCombat {
		return Decision{Start: true, Reason: ReasonPlayerAttack, SurprisedSide: SideEnemies}
	}
	return none()
}
