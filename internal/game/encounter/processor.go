package encounter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/config"
	"github.com/emberfall/skirmish/internal/game/action"
	"github.com/emberfall/skirmish/internal/game/bestiary"
	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/narrator"
	"github.com/emberfall/skirmish/internal/game/roster"
	"github.com/emberfall/skirmish/internal/game/rules"
	"github.com/emberfall/skirmish/internal/game/tactician"
)

// StatLookup answers creature-name queries during encounter setup. A nil
// result means the creature is unknown; callers substitute default stats.
type StatLookup interface {
	Lookup(name string) *bestiary.StatBlock
}

// Engine drives encounters: it starts them, processes player and AI turns
// through one shared pipeline, and moves the session through its phases.
type Engine struct {
	roller      *dice.Roller
	executor    *action.Executor
	gen         narrator.Generator
	enemyAI     tactician.Decider
	companionAI tactician.Decider
	stats       StatLookup

	defaultHP int
	defaultAC int

	logger *zap.Logger
}

// NewEngine wires an Engine from its collaborators.
//
// Precondition: all collaborators are non-nil.
func NewEngine(
	roller *dice.Roller,
	gen narrator.Generator,
	enemyAI, companionAI tactician.Decider,
	stats StatLookup,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *Engine {
	defaultHP := cfg.DefaultHP
	if defaultHP < 1 {
		defaultHP = rules.DefaultMaxHP
	}
	defaultAC := cfg.DefaultAC
	if defaultAC < 1 {
		defaultAC = rules.DefaultArmorClass
	}
	return &Engine{
		roller:      roller,
		executor:    action.NewExecutor(roller, logger),
		gen:         gen,
		enemyAI:     enemyAI,
		companionAI: companionAI,
		stats:       stats,
		defaultHP:   defaultHP,
		defaultAC:   defaultAC,
		logger:      logger,
	}
}

var (
	castVerbPattern  = regexp.MustCompile(`(?i)\b(lanzo|lanza|lanzar|conjuro|conjura|hechizo|cast)\b`)
	useVerbPattern   = regexp.MustCompile(`(?i)\b(uso|usa|bebo|bebe|utilizo|utiliza|use|drink)\b`)
	instrumentRegexp = regexp.MustCompile(`(?i)\b(?:con|usando|with)\s+(?:el|la|los|las|mi|mis|un|una)?\s*(\p{L}+(?:\s+\p{L}+)?)`)
)

// nameMentioned reports whether any significant word of name occurs in the
// normalized text.
func nameMentioned(name, normText string) bool {
	for _, w := range strings.Fields(roster.Normalize(name)) {
		if len(w) < 3 {
			continue
		}
		if strings.Contains(normText, w) {
			return true
		}
	}
	return false
}

// processPlayerTurn runs the player half of the unified turn pipeline. A
// returned retryable failure means nothing was mutated and the turn was not
// consumed.
func (e *Engine) processPlayerTurn(ctx context.Context, s *Session, act InterpretedAction) *TurnFailure {
	if act.Type != "attack" {
		return failf(FailInvalidAction,
			"Esa acción no es válida en mitad de un combate. Prueba a atacar.")
	}

	active := s.Active()
	actor := s.stateOf(active)
	if actor == nil {
		return failf(FailInternal, "Algo ha ido mal procesando este turno.")
	}

	text := roster.Normalize(act.Text)

	// Healing spells bypass enemy targeting: they aim at the party.
	if castVerbPattern.MatchString(text) {
		if sp, fail := e.findSpell(*actor, text); fail != nil {
			return fail
		} else if sp.Healing {
			targetID := e.healTargetID(s, *actor, act.Target)
			resolved := action.ResolveSpell(*actor, sp, targetID)
			e.executeAndNarrate(ctx, s, resolved)
			return nil
		} else {
			targetID, fail := e.resolveEnemyTarget(s, act.Target)
			if fail != nil {
				return fail
			}
			resolved := action.ResolveSpell(*actor, sp, targetID)
			e.executeAndNarrate(ctx, s, resolved)
			return nil
		}
	}

	if fail := e.validateItemUse(*actor, text); fail != nil {
		return fail
	}
	if potion := e.potionUse(*actor, text); potion != nil {
		e.executeAndNarrate(ctx, s, *potion)
		return nil
	}

	targetID, fail := e.resolveEnemyTarget(s, act.Target)
	if fail != nil {
		return fail
	}

	w, fail := e.findWeapon(*actor, text)
	if fail != nil {
		return fail
	}
	var resolved action.Resolved
	if w != nil {
		resolved = action.ResolveWeaponAttack(*actor, *w, targetID)
	} else {
		resolved = action.ResolveStatAction(*actor, act.Text, targetID)
	}
	e.executeAndNarrate(ctx, s, resolved)
	return nil
}

// findSpell matches the spell named in the text against the caster's known
// spells. With a cast verb but no recognizable name, the first known spell is
// chosen; knowing none at all is a validation failure.
func (e *Engine) findSpell(actor rules.CharacterState, normText string) (rules.Spell, *TurnFailure) {
	for _, sp := range actor.Spells {
		if nameMentioned(sp.Name, normText) {
			return sp, nil
		}
	}
	if m := instrumentRegexp.FindStringSubmatch(normText); m != nil {
		return rules.Spell{}, failf(FailSpellUnknown,
			fmt.Sprintf("No conoces ningún conjuro llamado «%s».", m[1]))
	}
	if len(actor.Spells) > 0 {
		return actor.Spells[0], nil
	}
	return rules.Spell{}, failf(FailSpellUnknown, "No conoces ningún conjuro.")
}

// findWeapon matches the weapon named in the text against the character's
// carried weapons. Naming an instrument they do not carry is a validation
// failure; naming nothing falls back to the first weapon, or nil for unarmed.
func (e *Engine) findWeapon(actor rules.CharacterState, normText string) (*rules.Weapon, *TurnFailure) {
	for i := range actor.Weapons {
		if nameMentioned(actor.Weapons[i].Name, normText) {
			return &actor.Weapons[i], nil
		}
	}
	if m := instrumentRegexp.FindStringSubmatch(normText); m != nil {
		instrument := m[1]
		// The phrase may name an inventory item instead of a weapon.
		for _, item := range actor.Inventory {
			if nameMentioned(item, roster.Normalize(instrument)) || nameMentioned(instrument, roster.Normalize(item)) {
				return nil, nil
			}
		}
		return nil, failf(FailWeaponNotOwned,
			fmt.Sprintf("No llevas ningún arma llamada «%s».", instrument))
	}
	if len(actor.Weapons) > 0 {
		return &actor.Weapons[0], nil
	}
	return nil, nil
}

// validateItemUse rejects an explicit item use naming something not carried.
func (e *Engine) validateItemUse(actor rules.CharacterState, normText string) *TurnFailure {
	if !useVerbPattern.MatchString(normText) {
		return nil
	}
	m := instrumentRegexp.FindStringSubmatch(normText)
	if m == nil {
		return nil
	}
	instrument := m[1]
	for _, item := range actor.Inventory {
		if nameMentioned(item, roster.Normalize(instrument)) || nameMentioned(instrument, roster.Normalize(item)) {
			return nil
		}
	}
	for i := range actor.Weapons {
		if nameMentioned(actor.Weapons[i].Name, roster.Normalize(instrument)) {
			return nil
		}
	}
	return failf(FailItemNotOwned,
		fmt.Sprintf("No llevas ningún objeto llamado «%s».", instrument))
}

// potionUse plans drinking a healing potion when the text asks for one the
// character actually carries. Returns nil when no potion use applies.
func (e *Engine) potionUse(actor rules.CharacterState, normText string) *action.Resolved {
	if !useVerbPattern.MatchString(normText) || !strings.Contains(normText, "pocion") {
		return nil
	}
	owned := false
	for _, item := range actor.Inventory {
		if strings.Contains(roster.Normalize(item), "pocion") {
			owned = true
			break
		}
	}
	if !owned {
		return nil
	}
	return &action.Resolved{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		TargetID:    actor.ID,
		Description: fmt.Sprintf("%s bebe una poción de curación", actor.Name),
		Rolls: []action.RollRequest{{
			Kind:        action.RollHealing,
			Expression:  "2d4+2",
			Description: "Poción de curación",
		}},
	}
}

// healTargetID resolves the recipient of a healing spell: a named party
// member, defaulting to the caster.
func (e *Engine) healTargetID(s *Session, actor rules.CharacterState, reference string) string {
	ref := roster.Normalize(reference)
	if ref != "" {
		for _, p := range s.party {
			if p.ID == reference || roster.Normalize(p.Name) == ref {
				return p.ID
			}
		}
	}
	return actor.ID
}

// resolveEnemyTarget applies the player targeting rules: auto-select a lone
// living enemy, demand a choice among several, resolve free-text references,
// and reject ambiguous or dead targets. Every failure is retryable.
func (e *Engine) resolveEnemyTarget(s *Session, reference string) (string, *TurnFailure) {
	living := livingStates(s.enemies)
	if reference == "" {
		switch len(living) {
		case 0:
			return "", failf(FailTargetNotFound, "No hay nada que atacar.")
		case 1:
			s.appendMessage(fmt.Sprintf("(Atacas a %s.)", s.displayName(living[0].ID)))
			return living[0].ID, nil
		default:
			names := make([]string, len(living))
			for i, st := range living {
				names[i] = s.displayName(st.ID)
			}
			f := failf(FailTargetRequired,
				fmt.Sprintf("¿A quién atacas? Puedes elegir entre: %s.", strings.Join(names, ", ")))
			f.Candidates = names
			return "", f
		}
	}

	res := roster.ResolveTarget(reference, s.enemies, s.order)
	if res.Ambiguous {
		f := failf(FailTargetAmbiguous,
			fmt.Sprintf("Hay varios objetivos posibles: %s. ¿A cuál atacas?", strings.Join(res.Matches, ", ")))
		f.Candidates = res.Matches
		return "", f
	}
	if res.ID == "" {
		return "", failf(FailTargetNotFound,
			fmt.Sprintf("No ves a nadie llamado «%s».", reference))
	}
	target := rules.FindByID(s.enemies, res.ID)
	if target == nil {
		return "", failf(FailTargetNotFound,
			fmt.Sprintf("No ves a nadie llamado «%s».", reference))
	}
	if target.CurrentHP <= 0 {
		return "", failf(FailTargetDead,
			fmt.Sprintf("%s ya está fuera de combate. Elige otro objetivo.", s.displayName(target.ID)))
	}
	return res.ID, nil
}

// doNothingPattern recognizes a tactician plan that wastes the turn.
var doNothingPattern = regexp.MustCompile(`(?i)\b(nada|nothing|esperar?|espera|pasar?|pasa turno|wait|pass)\b`)

// processAITurn runs the AI half of the unified turn pipeline. AI turns are
// always consumed; collaborator misbehavior degrades to a forced baseline
// attack or a harmless no-action, never a stall.
func (e *Engine) processAITurn(ctx context.Context, s *Session) {
	active := s.Active()
	actor := s.stateOf(active)
	if actor == nil {
		e.logger.Error("AI turn for combatant with no state", zap.String("id", active.ID))
		return
	}

	decider := e.companionAI
	if active.IsEnemy() {
		decider = e.enemyAI
	}

	decision, err := decider.Decide(ctx, e.buildSituation(s, active, *actor))
	if err != nil {
		e.logger.Warn("tactician failed, forcing baseline attack",
			zap.String("actor", active.ID), zap.Error(err))
		decision = tactician.Decision{}
	}

	opponents := livingStates(s.opponentsOf(active))
	if decision.TargetReference == "" && decision.ActionDescription == "" && err == nil {
		s.appendMessage(fmt.Sprintf("%s duda y no hace nada.", active.DisplayName))
		return
	}
	if doNothingPattern.MatchString(roster.Normalize(decision.ActionDescription)) {
		// A misbehaving tactician never silently wastes a turn.
		e.logger.Warn("tactician chose inaction, forcing baseline attack",
			zap.String("actor", active.ID),
			zap.String("plan", decision.ActionDescription))
		decision.ActionDescription = "ataque"
		decision.TargetReference = ""
	}
	if decision.ActionDescription == "" {
		decision.ActionDescription = "ataque"
	}
	if len(opponents) == 0 {
		s.appendMessage(fmt.Sprintf("%s no encuentra a nadie a quien atacar.", active.DisplayName))
		return
	}

	targetID := e.resolveAITarget(s, active, decision.TargetReference, opponents)
	resolved := e.planAIAction(*actor, decision.ActionDescription, targetID)
	e.executeAndNarrate(ctx, s, resolved)
}

// resolveAITarget maps a tactician's target reference onto a living opposing
// combatant, falling back to the first living opponent.
func (e *Engine) resolveAITarget(s *Session, active rules.Combatant, reference string, opponents []rules.CharacterState) string {
	ref := strings.TrimSpace(reference)
	if ref != "" {
		for _, o := range opponents {
			if o.ID == ref {
				return o.ID
			}
		}
		// Companions may reference enemies in natural language.
		if active.Kind == rules.KindCompanion {
			if res := roster.ResolveTarget(ref, s.enemies, s.order); res.Resolved() {
				if t := rules.FindByID(opponents, res.ID); t != nil {
					return res.ID
				}
			}
		}
		norm := roster.Normalize(ref)
		for _, o := range opponents {
			if roster.Normalize(o.Name) == norm || roster.Normalize(s.displayName(o.ID)) == norm {
				return o.ID
			}
		}
		e.logger.Warn("tactician target not found, using first living opponent",
			zap.String("actor", active.ID), zap.String("reference", reference))
	}
	return opponents[0].ID
}

// planAIAction resolves the mechanical rolls for an AI plan. Stat-block
// actions win; otherwise a carried weapon; otherwise the unarmed baseline.
// The tactician's dice advice is never used.
func (e *Engine) planAIAction(actor rules.CharacterState, description, targetID string) action.Resolved {
	if len(actor.Actions) > 0 {
		return action.ResolveStatAction(actor, description, targetID)
	}
	normText := roster.Normalize(description)
	for i := range actor.Weapons {
		if nameMentioned(actor.Weapons[i].Name, normText) {
			return action.ResolveWeaponAttack(actor, actor.Weapons[i], targetID)
		}
	}
	if len(actor.Weapons) > 0 {
		return action.ResolveWeaponAttack(actor, actor.Weapons[0], targetID)
	}
	return action.ResolveStatAction(actor, description, targetID)
}

// buildSituation flattens the session into a tactician's view: qualitative
// HP only, never raw numbers.
func (e *Engine) buildSituation(s *Session, active rules.Combatant, actor rules.CharacterState) tactician.Situation {
	sit := tactician.Situation{
		ActorName:      active.DisplayName,
		LocationFlavor: s.locationFlavor,
		Transcript:     s.history,
	}
	for _, sp := range actor.Spells {
		sit.Spells = append(sit.Spells, sp.Name)
	}
	sit.Inventory = append(sit.Inventory, actor.Inventory...)

	for _, st := range livingStates(s.sideFor(active)) {
		if st.ID == active.ID {
			continue
		}
		sit.Allies = append(sit.Allies, e.opponentView(s, st))
	}
	for _, st := range livingStates(s.opponentsOf(active)) {
		sit.Opponents = append(sit.Opponents, e.opponentView(s, st))
	}
	return sit
}

func (e *Engine) opponentView(s *Session, st rules.CharacterState) tactician.Opponent {
	return tactician.Opponent{
		ID:          st.ID,
		DisplayName: s.displayName(st.ID),
		Condition:   string(rules.HPStatus(st.CurrentHP, st.MaxHP)),
	}
}

// executeAndNarrate runs the shared execution and resolution-narration steps.
// Narration failures are swallowed; a missing line is not a turn failure.
func (e *Engine) executeAndNarrate(ctx context.Context, s *Session, resolved action.Resolved) action.Result {
	res := e.executor.Execute(resolved, s.party, s.enemies)
	s.party = res.Party
	s.enemies = res.Enemies
	s.rolls = append(s.rolls, res.Rolls...)
	s.messages = append(s.messages, res.Messages...)

	req := narrator.Request{
		Attacker:          s.displayName(resolved.ActorID),
		Target:            s.displayName(resolved.TargetID),
		ActionDescription: resolved.Description,
		Damage:            res.DamageDealt,
		Healed:            res.Healed,
		BeforeHP:          res.TargetPrevHP,
		AfterHP:           res.TargetNewHP,
		Killed:            res.Killed,
		KnockedOut:        res.KnockedOut,
		LocationFlavor:    s.locationFlavor,
	}
	if res.AttackRolled {
		switch {
		case res.Critical:
			req.Outcome = narrator.OutcomeCritical
		case res.Fumble:
			req.Outcome = narrator.OutcomeFumble
		case res.Hit:
			req.Outcome = narrator.OutcomeHit
		default:
			req.Outcome = narrator.OutcomeMiss
		}
	}
	if text, err := e.gen.Narrate(ctx, req); err != nil {
		e.logger.Warn("resolution narration failed", zap.Error(err))
	} else if text != "" {
		s.appendMessage(text)
	}

	// Short-circuit straight to COMBAT_END after a decisive mutation; ending
	// combat never waits for an extra continue round-trip.
	if res.End.Ended {
		e.endCombat(s, res.End)
	}
	return res
}

// opponentsOf returns the live state list opposing an initiative entry.
func (s *Session) opponentsOf(c rules.Combatant) []rules.CharacterState {
	if c.IsEnemy() {
		return s.party
	}
	return s.enemies
}

// displayName prefers the initiative order's disambiguated name for an ID.
func (s *Session) displayName(id string) string {
	for _, c := range s.order {
		if c.ID == id {
			return c.DisplayName
		}
	}
	if st := rules.FindByID(s.party, id); st != nil {
		return st.Name
	}
	if st := rules.FindByID(s.enemies, id); st != nil {
		return st.Name
	}
	return id
}

// livingStates filters to combatants above 0 HP.
func livingStates(states []rules.CharacterState) []rules.CharacterState {
	var out []rules.CharacterState
	for _, st := range states {
		if st.CurrentHP > 0 {
			out = append(out, st)
		}
	}
	return out
}
