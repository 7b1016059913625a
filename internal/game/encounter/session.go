package encounter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/rules"
	"github.com/emberfall/skirmish/internal/game/turn"
)

// HandleExchange runs one full exchange against a snapshot: a player action,
// a continue signal, or a bare re-entry, depending on the phase supplied. The
// session is constructed fresh, advanced, and flattened back out; the engine
// holds no state between calls.
func (e *Engine) HandleExchange(ctx context.Context, in Input) Output {
	s := NewSession(in, e.logger)

	switch s.phase {
	case PhaseSetup:
		// A continue signal before combat ever started is a deliberate no-op:
		// there is no turn to advance and nothing to re-enter.
		if in.Continue {
			e.logger.Debug("continue received in SETUP, ignoring")
		}
	case PhaseCombatEnd:
		// Terminal; nothing advances.
	case PhaseWaitingForAction:
		if in.InterpretedAction != nil {
			e.submitPlayerAction(ctx, s, *in.InterpretedAction)
		}
	case PhaseActionResolved:
		if in.Continue {
			e.endTurn(ctx, s)
		}
	case PhaseTurnStart:
		e.runTurnStart(ctx, s)
	case PhaseTurnEnd:
		e.endTurn(ctx, s)
	case PhaseProcessingAction:
		// A snapshot should never persist mid-processing; recover by
		// restarting the turn.
		e.logger.Warn("snapshot arrived in PROCESSING_ACTION, re-entering TURN_START")
		s.phase = PhaseTurnStart
		e.runTurnStart(ctx, s)
	}

	return s.Snapshot()
}

// runTurnStart is the TURN_START phase handler. Checks run in fixed priority:
// end-of-combat, surprise, dead/unconscious, then normal play. An AI turn
// proceeds straight through PROCESSING_ACTION before control returns.
func (e *Engine) runTurnStart(ctx context.Context, s *Session) {
	if end := rules.CheckEndOfCombat(s.party, s.enemies); end.Ended {
		e.endCombat(s, end)
		return
	}
	if len(s.order) == 0 {
		e.logger.Error("turn start with empty initiative order")
		e.endCombat(s, rules.EndState{Ended: true, Reason: rules.EndEnemiesDefeated})
		return
	}

	active := s.Active()

	if active.Surprised {
		s.order[s.turnIndex].Surprised = false
		s.appendMessage(fmt.Sprintf("%s está sorprendido y pierde su turno.", active.DisplayName))
		s.phase = PhaseActionResolved
		return
	}

	if turn.ShouldSkip(active, s.party, s.enemies) {
		s.appendMessage(fmt.Sprintf("%s no puede actuar.", active.DisplayName))
		s.phase = PhaseActionResolved
		return
	}

	s.phase = PhaseWaitingForAction
	if active.Controller == rules.ControllerAI {
		s.phase = PhaseProcessingAction
		e.processAITurn(ctx, s)
		if s.phase == PhaseCombatEnd {
			return
		}
		s.phase = PhaseActionResolved
	}
}

// submitPlayerAction handles a player action in WAITING_FOR_ACTION. Retryable
// failures leave the phase untouched so the caller re-prompts; internal
// failures consume the turn to guarantee forward progress.
func (e *Engine) submitPlayerAction(ctx context.Context, s *Session, act InterpretedAction) {
	active := s.Active()
	if active.Controller != rules.ControllerPlayer {
		e.logger.Error("player action during an AI combatant's turn",
			zap.String("active", active.ID))
		return
	}

	if fail := e.processPlayerTurn(ctx, s, act); fail != nil {
		s.appendMessage(fail.Message)
		if fail.Retryable() {
			return
		}
		e.logger.Error("turn consumed by internal failure", zap.String("reason", fail.Message))
	}
	if s.phase == PhaseCombatEnd {
		return
	}
	s.phase = PhaseActionResolved
}

// endTurn is the TURN_END phase handler: advance the index, wrap, and
// re-enter TURN_START.
func (e *Engine) endTurn(ctx context.Context, s *Session) {
	s.turnIndex = turn.NextIndex(s.turnIndex, len(s.order))
	s.phase = PhaseTurnStart
	e.runTurnStart(ctx, s)
}

// endCombat transitions to the terminal phase with a victory or defeat
// message. Ending combat never costs the caller an extra continue:
// execution's success path calls this directly after any decisive mutation.
func (e *Engine) endCombat(s *Session, end rules.EndState) {
	s.phase = PhaseCombatEnd
	s.inCombat = false

	switch end.Reason {
	case rules.EndEnemiesDefeated:
		s.appendMessage("¡Victoria! Todos los enemigos han sido derrotados.")
	case rules.EndPartyUnconscious:
		s.appendMessage("Derrota. Todo el grupo ha caído inconsciente.")
	case rules.EndPartyDead:
		s.appendMessage("Derrota. Todo el grupo ha muerto.")
	}
	e.logger.Info("combat ended", zap.String("reason", string(end.Reason)))
}
