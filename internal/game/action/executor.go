package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/rules"
)

// Result is the structured, non-prose outcome of executing one action. The
// narration step renders it; nothing in here is user-facing text except
// Messages, which are mechanical log lines.
type Result struct {
	Party   []rules.CharacterState
	Enemies []rules.CharacterState
	Rolls   []dice.Roll
	// Messages are mechanical log lines, appended in execution order.
	Messages []string

	AttackRolled bool
	Hit          bool
	Critical     bool
	Fumble       bool

	DamageDealt int
	Healed      int
	TargetPrevHP int
	TargetNewHP  int
	Killed       bool
	KnockedOut   bool

	End rules.EndState
}

// Executor runs resolved actions against live combat state.
type Executor struct {
	roller *dice.Roller
	logger *zap.Logger
}

// NewExecutor returns an Executor rolling with roller and logging to logger.
func NewExecutor(roller *dice.Roller, logger *zap.Logger) *Executor {
	return &Executor{roller: roller, logger: logger}
}

// Execute performs act's rolls in sequence against party and enemies and
// returns the updated state plus a structured result. Input slices are never
// mutated; updated copies come back in the Result.
//
// An attack roll decides hit or miss against the target's armor class,
// defaulting to AC 10 with a logged warning when the target has none. A miss
// skips every subsequent roll that requires a hit; saving-throw rolls apply
// regardless. A critical attack doubles the dice count of the following
// damage roll. Non-positive damage is no effect. A dice-roller failure is
// fatal only to that individual roll.
//
// Postcondition: Result.End reflects end-of-combat state after all mutations.
func (e *Executor) Execute(act Resolved, party, enemies []rules.CharacterState) Result {
	res := Result{
		Party:   append([]rules.CharacterState(nil), party...),
		Enemies: append([]rules.CharacterState(nil), enemies...),
	}

	target, targetIsEnemy := findTarget(act.TargetID, res.Party, res.Enemies)
	hit := false

	for _, req := range act.Rolls {
		switch req.Kind {
		case RollAttack:
			hit = e.executeAttack(act, req, target, &res)
		case RollDamage:
			if req.RequiresHit && !hit && !req.SavingThrow {
				e.logger.Debug("skipping damage roll, attack missed",
					zap.String("actor", act.ActorID),
					zap.String("description", req.Description))
				continue
			}
			e.executeDamage(act, req, target, targetIsEnemy, &res)
		case RollHealing:
			e.executeHealing(act, req, target, &res)
		}
	}

	res.End = rules.CheckEndOfCombat(res.Party, res.Enemies)
	return res
}

// executeAttack rolls to hit and reports the hit/miss decision.
func (e *Executor) executeAttack(act Resolved, req RollRequest, target *rules.CharacterState, res *Result) bool {
	roll, err := e.roller.Roll(act.ActorName, req.Expression, req.Description)
	if err != nil {
		e.failRoll(act, req, err, res)
		return false
	}

	ac := rules.DefaultArmorClass
	targetName := act.TargetID
	if target != nil {
		targetName = target.Name
		if target.ArmorClass > 0 {
			ac = target.ArmorClass
		} else {
			e.logger.Warn("target has no armor class, defaulting",
				zap.String("target", target.ID),
				zap.Int("default", rules.DefaultArmorClass))
		}
	}

	res.AttackRolled = true
	res.Critical = roll.Outcome == dice.OutcomeCrit
	res.Fumble = roll.Outcome == dice.OutcomeFumble
	hit := roll.Total >= ac
	res.Hit = hit

	switch {
	case res.Critical:
	case res.Fumble:
	case hit:
		roll.Outcome = dice.OutcomeSuccess
	default:
		roll.Outcome = dice.OutcomeFail
	}
	res.Rolls = append(res.Rolls, roll)

	switch {
	case res.Critical:
		res.Messages = append(res.Messages, fmt.Sprintf("¡%s consigue un golpe crítico contra %s!", act.ActorName, targetName))
	case res.Fumble:
		res.Messages = append(res.Messages, fmt.Sprintf("%s falla estrepitosamente contra %s.", act.ActorName, targetName))
	case hit:
		res.Messages = append(res.Messages, fmt.Sprintf("%s impacta a %s.", act.ActorName, targetName))
	default:
		res.Messages = append(res.Messages, fmt.Sprintf("%s falla el ataque contra %s.", act.ActorName, targetName))
	}
	return hit
}

// executeDamage rolls damage, doubling the dice on a critical, and applies it
// through the asymmetric enemy/player-side rules.
func (e *Executor) executeDamage(act Resolved, req RollRequest, target *rules.CharacterState, targetIsEnemy bool, res *Result) {
	expr := req.Expression
	if parsed, err := dice.Parse(expr); err == nil {
		base := fmt.Sprintf("%dd%d", parsed.Count, parsed.Sides)
		expr = rules.CriticalDamageNotation(base, parsed.Modifier, res.Critical)
	}

	roll, err := e.roller.Roll(act.ActorName, expr, req.Description)
	if err != nil {
		e.failRoll(act, req, err, res)
		return
	}
	res.Rolls = append(res.Rolls, roll)

	if target == nil {
		e.logger.Warn("damage roll with no resolvable target",
			zap.String("actor", act.ActorID),
			zap.String("target", act.TargetID))
		return
	}
	if roll.Total <= 0 {
		res.Messages = append(res.Messages, fmt.Sprintf("El golpe de %s no causa ningún efecto.", act.ActorName))
		return
	}

	updated, dr := rules.ApplyDamage(*target, roll.Total, targetIsEnemy)
	*target = updated
	res.DamageDealt = dr.DamageDealt
	res.TargetPrevHP = dr.PreviousHP
	res.TargetNewHP = dr.NewHP
	res.Killed = dr.Dead
	res.KnockedOut = dr.Unconscious

	switch {
	case dr.MassiveDamage:
		res.Messages = append(res.Messages, fmt.Sprintf("%s recibe %d puntos de daño masivo y muere al instante.", target.Name, dr.DamageDealt))
	case dr.Dead:
		res.Messages = append(res.Messages, fmt.Sprintf("%s recibe %d puntos de daño y cae muerto.", target.Name, dr.DamageDealt))
	case dr.Unconscious:
		res.Messages = append(res.Messages, fmt.Sprintf("%s recibe %d puntos de daño y cae inconsciente.", target.Name, dr.DamageDealt))
	default:
		res.Messages = append(res.Messages, fmt.Sprintf("%s recibe %d puntos de daño.", target.Name, dr.DamageDealt))
	}
}

// executeHealing rolls healing and restores the target up to its maximum,
// reviving an unconscious or dead target.
func (e *Executor) executeHealing(act Resolved, req RollRequest, target *rules.CharacterState, res *Result) {
	roll, err := e.roller.Roll(act.ActorName, req.Expression, req.Description)
	if err != nil {
		e.failRoll(act, req, err, res)
		return
	}
	res.Rolls = append(res.Rolls, roll)

	if target == nil {
		e.logger.Warn("healing roll with no resolvable target",
			zap.String("actor", act.ActorID),
			zap.String("target", act.TargetID))
		return
	}

	wasDown := target.CurrentHP <= 0
	updated, healed := rules.ApplyHealing(*target, roll.Total)
	*target = updated
	res.Healed = healed
	res.TargetNewHP = updated.CurrentHP

	if healed <= 0 {
		res.Messages = append(res.Messages, fmt.Sprintf("%s no recupera puntos de golpe.", target.Name))
		return
	}
	if wasDown {
		res.Messages = append(res.Messages, fmt.Sprintf("%s recupera %d puntos de golpe y vuelve en sí.", target.Name, healed))
		return
	}
	res.Messages = append(res.Messages, fmt.Sprintf("%s recupera %d puntos de golpe.", target.Name, healed))
}

// failRoll records a dice-roller failure: fatal to the individual roll, the
// turn continues with whatever rolls succeeded.
func (e *Executor) failRoll(act Resolved, req RollRequest, err error, res *Result) {
	e.logger.Error("dice roll failed",
		zap.String("actor", act.ActorID),
		zap.String("expression", req.Expression),
		zap.Error(err))
	res.Messages = append(res.Messages, fmt.Sprintf("La tirada de %s (%s) no pudo resolverse.", act.ActorName, req.Description))
}

// findTarget locates id among enemies first, then party. The returned pointer
// aliases the Result's working copies so mutations land in the output state.
func findTarget(id string, party, enemies []rules.CharacterState) (*rules.CharacterState, bool) {
	if id == "" {
		return nil, false
	}
	if t := rules.FindByID(enemies, id); t != nil {
		return t, true
	}
	return rules.FindByID(party, id), false
}
