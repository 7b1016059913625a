// Package rules implements the tabletop rules model for Skirmish: hit points,
// armor class, critical hits, massive damage, and the death/unconsciousness
// asymmetry between enemies and player-side combatants.
package rules

// Controller distinguishes human-driven combatants from AI-driven ones.
type Controller int

const (
	ControllerPlayer Controller = iota
	ControllerAI
)

// String returns a human-readable controller label.
func (c Controller) String() string {
	if c == ControllerPlayer {
		return "player"
	}
	return "ai"
}

// Kind classifies what a combatant is, independent of who controls it.
type Kind int

const (
	KindPlayerCharacter Kind = iota
	KindCompanion
	KindEnemy
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayerCharacter:
		return "player-character"
	case KindCompanion:
		return "companion"
	default:
		return "enemy"
	}
}

// Status is the derived condition of a combatant, computed for display.
type Status string

const (
	StatusActive      Status = "active"
	StatusUnconscious Status = "unconscious"
	StatusDead        Status = "dead"
)

// Combatant is one entry in the initiative order. The order is fixed in length
// and sequence once combat starts; defeated combatants remain and are skipped.
type Combatant struct {
	// ID is the stable per-encounter identifier, never reused within an encounter.
	ID string `json:"id"`
	// DisplayName is the disambiguated human-facing name, e.g. "Goblin 2".
	DisplayName string `json:"displayName"`
	// Initiative is the d20 + DEX modifier total; ties break by insertion order.
	Initiative int `json:"initiativeTotal"`
	Controller Controller `json:"controller"`
	Kind       Kind       `json:"kind"`
	// Surprised is true until the combatant's first turn comes up, which it loses.
	Surprised bool `json:"isSurprised"`
	// Status is the derived condition, recomputed on serialization. It may be
	// empty on entries supplied by the caller, in which case the live HP state
	// is authoritative.
	Status Status `json:"status,omitempty"`
}

// IsEnemy reports whether this initiative entry belongs to the hostile side.
func (c Combatant) IsEnemy() bool { return c.Kind == KindEnemy }

// StatAction is a pre-authored attack from an enemy's reference stat block.
type StatAction struct {
	Name string `json:"name" yaml:"name"`
	// AttackBonus is the flat to-hit bonus; nil when the action has no attack roll.
	AttackBonus *int `json:"attackBonus,omitempty" yaml:"attack_bonus,omitempty"`
	// Damage is the damage expression, e.g. "1d6+2".
	Damage string `json:"damage,omitempty" yaml:"damage,omitempty"`
}

// AbilityModifiers holds the six ability modifiers (not scores).
type AbilityModifiers struct {
	Strength     int `json:"strength" yaml:"strength"`
	Dexterity    int `json:"dexterity" yaml:"dexterity"`
	Constitution int `json:"constitution" yaml:"constitution"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Wisdom       int `json:"wisdom" yaml:"wisdom"`
	Charisma     int `json:"charisma" yaml:"charisma"`
}

// Weapon is a carried weapon with optional structured property data.
type Weapon struct {
	Name string `json:"name" yaml:"name"`
	// Damage is the base damage expression before ability modifier, e.g. "1d8".
	Damage string `json:"damage" yaml:"damage"`
	// Properties holds explicit structured traits ("finesse", "ranged", "melee").
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	// Description is free text parsed when Properties is empty.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Spell is a known spell. Save-based spells skip the attack roll entirely.
type Spell struct {
	Name string `json:"name" yaml:"name"`
	// Damage is the damage expression; empty for pure utility spells.
	Damage string `json:"damage,omitempty" yaml:"damage,omitempty"`
	// Healing marks restorative spells; Damage then holds the healing expression.
	Healing bool `json:"healing,omitempty" yaml:"healing,omitempty"`
	// SaveBased spells apply their roll regardless of any attack outcome.
	SaveBased bool `json:"saveBased,omitempty" yaml:"save_based,omitempty"`
}

// CharacterState is the live combat-participant record for one party member or
// enemy. The encounter session exclusively owns the mutable copies; externally
// supplied records are snapshots copied on entry and replaced wholesale on exit.
//
// Invariant: 0 <= CurrentHP <= MaxHP after every mutation.
// Invariant: Dead implies CurrentHP == 0.
type CharacterState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CurrentHP  int    `json:"hpCurrent"`
	MaxHP      int    `json:"hpMax"`
	ArmorClass int    `json:"armorClass"`
	// Dead is meaningful for player-side combatants; enemies at 0 HP are always dead.
	Dead             bool             `json:"isDead"`
	Abilities        AbilityModifiers `json:"abilities"`
	ProficiencyBonus int              `json:"proficiencyBonus"`
	Weapons          []Weapon         `json:"weapons,omitempty"`
	Spells           []Spell          `json:"spells,omitempty"`
	Inventory        []string         `json:"inventory,omitempty"`
	Actions          []StatAction     `json:"actions,omitempty"`
}

// AbilityMod computes the standard ability modifier from a raw score using
// floor division: floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ProficiencyForLevel returns the proficiency bonus for the given level.
// Formula: 2 + (level-1)/4, minimum 2.
//
// Precondition: level >= 1.
// Postcondition: Returns >= 2.
func ProficiencyForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}
