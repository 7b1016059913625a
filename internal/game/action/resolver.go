// Package action converts a combat decision ("attack with the scimitar") into
// an ordered list of dice-roll requests and executes them against live state.
// Player characters, companions, and enemies all resolve through the same
// ability-modifier and proficiency math; there is no side-specific shortcut.
package action

import (
	"fmt"
	"strings"

	"github.com/emberfall/skirmish/internal/game/roster"
	"github.com/emberfall/skirmish/internal/game/rules"
)

// RollKind tags what a requested roll mechanically is. The tag is the single
// source of truth; roll descriptions are flavor only and never inspected.
type RollKind int

const (
	RollAttack RollKind = iota
	RollDamage
	RollHealing
)

// String returns a human-readable roll-kind label.
func (k RollKind) String() string {
	switch k {
	case RollAttack:
		return "attack"
	case RollDamage:
		return "damage"
	default:
		return "healing"
	}
}

// RollRequest is one dice roll the executor must perform, in order.
type RollRequest struct {
	Kind        RollKind
	Expression  string
	Description string
	// RequiresHit marks rolls skipped when the preceding attack roll missed.
	RequiresHit bool
	// SavingThrow rolls apply regardless of any preceding attack outcome.
	SavingThrow bool
}

// Resolved is a fully planned action ready for execution: who acts, against
// whom, with which rolls, plus the prose description handed to narration.
type Resolved struct {
	ActorID     string
	ActorName   string
	TargetID    string
	Description string
	Rolls       []RollRequest
}

// trait is the resolved handling category of a weapon.
type trait int

const (
	traitMelee trait = iota
	traitFinesse
	traitRanged
)

// Name keyword fallbacks for common weapons, Spanish and English. Consulted
// only when neither structured properties nor the description decide.
var (
	rangedNames  = []string{"arco", "ballesta", "honda", "bow", "crossbow", "sling", "jabalina", "javelin", "dardo", "dart"}
	finesseNames = []string{"daga", "estoque", "cimitarra", "dagger", "rapier", "scimitar", "latigo", "whip", "espada corta", "shortsword"}
)

// weaponTrait resolves ranged/finesse/melee with a priority cascade: explicit
// structured properties, then description keywords, then name heuristics.
// Anything unrecognized defaults to plain melee.
func weaponTrait(w rules.Weapon) trait {
	for _, p := range w.Properties {
		switch roster.Normalize(p) {
		case "ranged", "a distancia", "distancia":
			return traitRanged
		case "finesse", "sutileza":
			return traitFinesse
		case "melee", "cuerpo a cuerpo":
			return traitMelee
		}
	}
	desc := roster.Normalize(w.Description)
	if desc != "" {
		if strings.Contains(desc, "distancia") || strings.Contains(desc, "ranged") || strings.Contains(desc, "arroja") || strings.Contains(desc, "thrown") {
			return traitRanged
		}
		if strings.Contains(desc, "finesse") || strings.Contains(desc, "sutileza") {
			return traitFinesse
		}
	}
	name := roster.Normalize(w.Name)
	for _, kw := range rangedNames {
		if strings.Contains(name, kw) {
			return traitRanged
		}
	}
	for _, kw := range finesseNames {
		if strings.Contains(name, kw) {
			return traitFinesse
		}
	}
	return traitMelee
}

// attackAbilityMod picks the ability modifier a weapon attacks with: Dexterity
// for ranged, the better of Strength/Dexterity for finesse, Strength otherwise.
func attackAbilityMod(w rules.Weapon, ab rules.AbilityModifiers) int {
	switch weaponTrait(w) {
	case traitRanged:
		return ab.Dexterity
	case traitFinesse:
		if ab.Dexterity > ab.Strength {
			return ab.Dexterity
		}
		return ab.Strength
	default:
		return ab.Strength
	}
}

// withModifier appends a signed modifier to a dice expression, omitting a zero.
func withModifier(expr string, mod int) string {
	if mod == 0 {
		return expr
	}
	return fmt.Sprintf("%s%+d", expr, mod)
}

// ResolveWeaponAttack plans an attack with a carried weapon: an attack roll of
// 1d20 + ability modifier + proficiency bonus, then a damage roll of the
// weapon's base die + the same ability modifier. Proficiency never applies to
// damage.
func ResolveWeaponAttack(actor rules.CharacterState, w rules.Weapon, targetID string) Resolved {
	mod := attackAbilityMod(w, actor.Abilities)
	dmg := w.Damage
	if dmg == "" {
		dmg = "1d4"
	}
	return Resolved{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		TargetID:    targetID,
		Description: fmt.Sprintf("%s ataca con %s", actor.Name, w.Name),
		Rolls: []RollRequest{
			{
				Kind:        RollAttack,
				Expression:  withModifier("1d20", mod+actor.ProficiencyBonus),
				Description: fmt.Sprintf("Ataque con %s", w.Name),
			},
			{
				Kind:        RollDamage,
				Expression:  withModifier(dmg, mod),
				Description: fmt.Sprintf("Daño de %s", w.Name),
				RequiresHit: true,
			},
		},
	}
}

// ResolveSpell plans casting a known spell. Healing spells produce a single
// healing roll. Save-based spells produce a single damage roll that applies
// regardless of any attack outcome. Other damaging spells roll a spell attack
// first, using the caster's best mental ability modifier plus proficiency.
func ResolveSpell(actor rules.CharacterState, s rules.Spell, targetID string) Resolved {
	r := Resolved{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		TargetID:    targetID,
		Description: fmt.Sprintf("%s lanza %s", actor.Name, s.Name),
	}
	expr := s.Damage
	if expr == "" {
		expr = "1d4"
	}
	if s.Healing {
		r.Rolls = []RollRequest{{
			Kind:        RollHealing,
			Expression:  expr,
			Description: fmt.Sprintf("Curación de %s", s.Name),
		}}
		return r
	}
	if s.SaveBased {
		r.Rolls = []RollRequest{{
			Kind:        RollDamage,
			Expression:  expr,
			Description: fmt.Sprintf("Daño de %s", s.Name),
			SavingThrow: true,
		}}
		return r
	}
	mod := spellAbilityMod(actor.Abilities)
	r.Rolls = []RollRequest{
		{
			Kind:        RollAttack,
			Expression:  withModifier("1d20", mod+actor.ProficiencyBonus),
			Description: fmt.Sprintf("Ataque de conjuro: %s", s.Name),
		},
		{
			Kind:        RollDamage,
			Expression:  expr,
			Description: fmt.Sprintf("Daño de %s", s.Name),
			RequiresHit: true,
		},
	}
	return r
}

// spellAbilityMod picks the best mental ability modifier as the casting stat.
func spellAbilityMod(ab rules.AbilityModifiers) int {
	mod := ab.Intelligence
	if ab.Wisdom > mod {
		mod = ab.Wisdom
	}
	if ab.Charisma > mod {
		mod = ab.Charisma
	}
	return mod
}

// ResolveStatAction plans an enemy turn from its reference stat block. An
// explicit action matching the query by accent-insensitive word overlap is
// used verbatim; a generic "ataque"/"attack" query falls back to the first
// action declaring an attack bonus; with no action data at all, a baseline
// unarmed strike is synthesized so a turn never stalls on missing data.
func ResolveStatAction(actor rules.CharacterState, query, targetID string) Resolved {
	if a := matchStatAction(actor.Actions, query); a != nil {
		bonus := 0
		if a.AttackBonus != nil {
			bonus = *a.AttackBonus
		}
		dmg := a.Damage
		if dmg == "" {
			dmg = "1d4"
		}
		return Resolved{
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			TargetID:    targetID,
			Description: fmt.Sprintf("%s usa %s", actor.Name, a.Name),
			Rolls: []RollRequest{
				{
					Kind:        RollAttack,
					Expression:  withModifier("1d20", bonus),
					Description: a.Name,
				},
				{
					Kind:        RollDamage,
					Expression:  dmg,
					Description: fmt.Sprintf("Daño de %s", a.Name),
					RequiresHit: true,
				},
			},
		}
	}
	// Unarmed baseline: Strength-based attack with proficiency, 1d4 damage.
	str := actor.Abilities.Strength
	return Resolved{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		TargetID:    targetID,
		Description: fmt.Sprintf("%s golpea", actor.Name),
		Rolls: []RollRequest{
			{
				Kind:        RollAttack,
				Expression:  withModifier("1d20", str+actor.ProficiencyBonus),
				Description: "Golpe",
			},
			{
				Kind:        RollDamage,
				Expression:  withModifier("1d4", str),
				Description: "Daño de golpe",
				RequiresHit: true,
			},
		},
	}
}

// genericAttackQueries are queries that mean "just attack" in either language.
var genericAttackQueries = map[string]bool{
	"ataque": true, "ataca": true, "ataco": true, "atacar": true,
	"attack": true, "attacks": true, "strike": true,
}

// matchStatAction finds the stat-block action best matching query, or nil.
func matchStatAction(actions []rules.StatAction, query string) *rules.StatAction {
	if len(actions) == 0 {
		return nil
	}
	queryWords := strings.Fields(roster.Normalize(query))
	for i := range actions {
		nameWords := strings.Fields(roster.Normalize(actions[i].Name))
		for _, qw := range queryWords {
			for _, nw := range nameWords {
				if qw == nw {
					return &actions[i]
				}
			}
		}
	}
	// A generic attack query takes the first action with an attack bonus.
	for _, qw := range queryWords {
		if genericAttackQueries[qw] {
			for i := range actions {
				if actions[i].AttackBonus != nil {
					return &actions[i]
				}
			}
		}
	}
	return nil
}
