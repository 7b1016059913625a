// Package encounter owns one combat's authoritative in-memory state and the
// phase machine that drives turn-by-turn progress. The engine is stateless
// between exchanges: each exchange constructs a session from the caller's
// snapshot, runs to completion synchronously, and flattens the session back
// out. Persistence of the returned snapshot is the caller's problem.
package encounter

import (
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/rules"
)

// Phase is the combat session's position in the turn cycle.
type Phase string

const (
	PhaseSetup            Phase = "SETUP"
	PhaseTurnStart        Phase = "TURN_START"
	PhaseWaitingForAction Phase = "WAITING_FOR_ACTION"
	PhaseProcessingAction Phase = "PROCESSING_ACTION"
	PhaseActionResolved   Phase = "ACTION_RESOLVED"
	PhaseTurnEnd          Phase = "TURN_END"
	PhaseCombatEnd        Phase = "COMBAT_END"
)

// InterpretedAction is the externally interpreted player command. The engine
// never parses raw player prose itself; the hosting conversational layer
// classifies it first and passes the structured form alongside the text.
type InterpretedAction struct {
	// Type is the action category; only "attack" is valid inside combat.
	Type string `json:"type"`
	// Target is the optional target reference, free text or canonical ID.
	Target string `json:"target,omitempty"`
	// Text is the player's original phrasing, mined for weapon/spell/item
	// mentions.
	Text string `json:"text,omitempty"`
}

// Input is the wire snapshot the caller supplies at the top of each exchange.
type Input struct {
	PlayerActionText  string             `json:"playerActionText,omitempty"`
	InterpretedAction *InterpretedAction `json:"interpretedAction,omitempty"`
	// Continue is the explicit signal advancing past ACTION_RESOLVED.
	Continue        bool                    `json:"continueTurn,omitempty"`
	InCombat        bool                    `json:"inCombat"`
	LocationID      string                  `json:"locationId,omitempty"`
	LocationFlavor  string                  `json:"locationFlavor,omitempty"`
	History         []string                `json:"conversationHistoryTail,omitempty"`
	Party           []rules.CharacterState  `json:"party"`
	Enemies         []rules.CharacterState  `json:"enemies"`
	InitiativeOrder []rules.Combatant       `json:"initiativeOrder"`
	TurnIndex       int                     `json:"turnIndex"`
	Phase           Phase                   `json:"phase"`
}

// Output is the wire snapshot returned at the end of each exchange. The
// initiative order comes back annotated with each combatant's derived status.
type Output struct {
	Messages        []string               `json:"messages"`
	DiceRollLog     []dice.Roll            `json:"diceRollLog"`
	UpdatedParty    []rules.CharacterState `json:"updatedParty"`
	UpdatedEnemies  []rules.CharacterState `json:"updatedEnemies"`
	InCombat        bool                   `json:"inCombat"`
	InitiativeOrder []rules.Combatant      `json:"initiativeOrder"`
	TurnIndex       int                    `json:"turnIndex"`
	Phase           Phase                  `json:"phase"`
	NextLocationID  string                 `json:"nextLocationId,omitempty"`
}

// Session is one encounter's live state for the duration of a single
// exchange. It exclusively owns its copies; input slices are never mutated.
type Session struct {
	party   []rules.CharacterState
	enemies []rules.CharacterState
	order   []rules.Combatant

	turnIndex int
	phase     Phase
	inCombat  bool

	locationID     string
	locationFlavor string
	history        []string

	messages []string
	rolls    []dice.Roll

	logger *zap.Logger
}

// NewSession constructs a session from an external snapshot, clamping the
// supplied turn index into range and re-validating every HP value.
func NewSession(in Input, logger *zap.Logger) *Session {
	s := &Session{
		party:          append([]rules.CharacterState(nil), in.Party...),
		enemies:        append([]rules.CharacterState(nil), in.Enemies...),
		order:          append([]rules.Combatant(nil), in.InitiativeOrder...),
		turnIndex:      in.TurnIndex,
		phase:          in.Phase,
		inCombat:       in.InCombat,
		locationID:     in.LocationID,
		locationFlavor: in.LocationFlavor,
		history:        in.History,
		logger:         logger,
	}
	if s.phase == "" {
		s.phase = PhaseSetup
	}
	// Status annotations on incoming entries are last exchange's derivation;
	// the live HP state is authoritative until Snapshot recomputes them.
	for i := range s.order {
		s.order[i].Status = ""
	}
	for i := range s.party {
		s.party[i] = rules.ValidateAndClampHP(s.party[i])
	}
	for i := range s.enemies {
		s.enemies[i] = rules.ValidateAndClampHP(s.enemies[i])
	}
	if len(s.order) == 0 {
		s.turnIndex = 0
	} else if s.turnIndex < 0 || s.turnIndex >= len(s.order) {
		logger.Warn("turn index out of range, clamping",
			zap.Int("turnIndex", in.TurnIndex),
			zap.Int("combatants", len(s.order)))
		s.turnIndex = 0
	}
	return s
}

// Active returns the initiative entry whose turn it is.
//
// Precondition: the initiative order is non-empty.
func (s *Session) Active() rules.Combatant {
	return s.order[s.turnIndex]
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase { return s.phase }

// appendMessage adds one user-facing line to the exchange transcript.
func (s *Session) appendMessage(msg string) {
	s.messages = append(s.messages, msg)
}

// sideFor returns the live state list the combatant belongs to.
func (s *Session) sideFor(c rules.Combatant) []rules.CharacterState {
	if c.IsEnemy() {
		return s.enemies
	}
	return s.party
}

// stateOf returns the live state for an initiative entry, or nil.
func (s *Session) stateOf(c rules.Combatant) *rules.CharacterState {
	return rules.FindByID(s.sideFor(c), c.ID)
}

// Snapshot flattens the session back to the wire shape, annotating each
// initiative entry with its derived status.
func (s *Session) Snapshot() Output {
	order := make([]rules.Combatant, len(s.order))
	for i, c := range s.order {
		annotated := c
		if state := s.stateOf(c); state != nil {
			annotated.Status = rules.DeriveStatus(*state, c.IsEnemy())
		} else {
			annotated.Status = rules.StatusDead
		}
		order[i] = annotated
	}
	return Output{
		Messages:        s.messages,
		DiceRollLog:     s.rolls,
		UpdatedParty:    s.party,
		UpdatedEnemies:  s.enemies,
		InCombat:        s.inCombat,
		InitiativeOrder: order,
		TurnIndex:       s.turnIndex,
		Phase:           s.phase,
	}
}
