// Package turn implements initiative-order advancement: computing the next
// slot in the rotation, deciding whether a combatant's turn is skipped, and
// detecting whether the engine should keep processing turns without player
// input.
package turn

import (
	"github.com/emberfall/skirmish/internal/game/rules"
)

// NextIndex returns the initiative slot that follows current, wrapping to the
// top of the order after the last combatant.
//
// Precondition: current is a valid index into an order of the given length.
// Postcondition: the result is in [0, length) for length > 0, and 0 otherwise.
func NextIndex(current, length int) int {
	if length <= 0 {
		return 0
	}
	return (current + 1) % length
}

// ShouldSkip reports whether c forfeits its turn. The precomputed status on
// the initiative entry wins when present; otherwise the live HP state decides.
// Dead combatants are always skipped. Unconscious player-side combatants are
// skipped but remain in the order; enemies never linger at zero HP, so an
// enemy is skipped only once dead.
func ShouldSkip(c rules.Combatant, party, enemies []rules.CharacterState) bool {
	if c.Status == rules.StatusUnconscious || c.Status == rules.StatusDead {
		return true
	}
	var state *rules.CharacterState
	if c.IsEnemy() {
		state = rules.FindByID(enemies, c.ID)
	} else {
		state = rules.FindByID(party, c.ID)
	}
	if state == nil {
		// No sheet for this slot; nothing can act on its behalf.
		return true
	}
	return rules.UnconsciousOrDead(*state, c.IsEnemy())
}

// FindNextActive scans forward from start (inclusive) and returns the index of
// the first combatant able to act, along with the combatants skipped over on
// the way. At most one full rotation is scanned; if every slot is skippable
// the start index is returned unchanged with every slot reported as skipped.
// Callers must treat that case as combat that should already have ended.
//
// Precondition: start is a valid index into order, or order is empty.
func FindNextActive(start int, order []rules.Combatant, party, enemies []rules.CharacterState) (int, []rules.Combatant) {
	if len(order) == 0 {
		return 0, nil
	}
	var skipped []rules.Combatant
	idx := start
	for i := 0; i < len(order); i++ {
		if !ShouldSkip(order[idx], party, enemies) {
			return idx, skipped
		}
		skipped = append(skipped, order[idx])
		idx = NextIndex(idx, len(order))
	}
	return start, skipped
}

// HasMoreAutomaticTurns reports whether the engine should process the active
// combatant's turn without waiting for player input. AI-controlled combatants
// always act automatically; a player-controlled combatant's turn is automatic
// only when they are down and the turn must be skipped on their behalf. A
// finished combat never has more automatic turns.
func HasMoreAutomaticTurns(active rules.Combatant, party, enemies []rules.CharacterState, combatEnded bool) bool {
	if combatEnded {
		return false
	}
	if active.Controller == rules.ControllerAI {
		return true
	}
	return ShouldSkip(active, party, enemies)
}
