package rules

import "fmt"

// DefaultMaxHP replaces a non-positive MaxHP during validation.
const DefaultMaxHP = 10

// DefaultArmorClass is assumed when a target has no armor class on record.
const DefaultArmorClass = 10

// ValidateAndClampHP normalizes a character's HP fields. It clamps CurrentHP
// into [0, MaxHP], resets a non-positive MaxHP to DefaultMaxHP, and forces
// CurrentHP to 0 when the character is dead.
//
// Idempotent: applying twice yields the same result as once.
// Postcondition: 0 <= CurrentHP <= MaxHP.
func ValidateAndClampHP(s CharacterState) CharacterState {
	if s.MaxHP <= 0 {
		s.MaxHP = DefaultMaxHP
	}
	if s.Dead {
		s.CurrentHP = 0
		return s
	}
	if s.CurrentHP < 0 {
		s.CurrentHP = 0
	}
	if s.CurrentHP > s.MaxHP {
		s.CurrentHP = s.MaxHP
	}
	return s
}

// UnconsciousOrDead reports whether a combatant can no longer act.
// Player-side combatants are out when dead or at 0 HP; enemies only when at
// 0 HP (enemies have no unconscious state — they die there instead).
func UnconsciousOrDead(s CharacterState, enemy bool) bool {
	if enemy {
		return s.CurrentHP <= 0
	}
	return s.Dead || s.CurrentHP <= 0
}

// DamageResult describes the effect of one ApplyDamage call.
type DamageResult struct {
	PreviousHP    int
	NewHP         int
	DamageDealt   int
	Dead          bool
	Unconscious   bool
	MassiveDamage bool
}

// ApplyDamage resolves amount points of damage against target and returns the
// updated state plus a structured result.
//
// An already-dead target is a no-op. A target reduced to 0 HP becomes
// unconscious unless the overkill beyond its remaining HP is at least its
// maximum HP, which is massive damage and kills outright regardless of kind.
// Enemies die at 0 HP unconditionally; player-side combatants only fall
// unconscious there. This asymmetry is the intended rule, not an oversight.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= result NewHP <= target.MaxHP.
func ApplyDamage(target CharacterState, amount int, enemy bool) (CharacterState, DamageResult) {
	target = ValidateAndClampHP(target)

	if target.Dead || (enemy && target.CurrentHP <= 0) {
		return target, DamageResult{PreviousHP: 0, NewHP: 0, Dead: true}
	}

	prev := target.CurrentHP
	remaining := prev - amount

	if remaining > 0 {
		target.CurrentHP = remaining
		return target, DamageResult{
			PreviousHP:  prev,
			NewHP:       remaining,
			DamageDealt: amount,
		}
	}

	target.CurrentHP = 0
	res := DamageResult{
		PreviousHP:  prev,
		NewHP:       0,
		DamageDealt: prev,
		Unconscious: true,
	}

	// Overkill beyond what was needed to reach 0 HP.
	overkill := amount - prev
	switch {
	case overkill >= target.MaxHP:
		res.MassiveDamage = true
		res.Dead = true
		res.Unconscious = false
		target.Dead = true
	case enemy:
		res.Dead = true
		res.Unconscious = false
		target.Dead = true
	}

	return target, res
}

// ApplyHealing restores amount HP up to MaxHP. Any positive amount restored
// also clears the Dead flag; there is no separate resurrection mechanic. A
// non-positive amount restores nothing and revives no one.
//
// Postcondition: CurrentHP <= MaxHP; Dead == false iff HP was restored.
func ApplyHealing(target CharacterState, amount int) (CharacterState, int) {
	if target.MaxHP <= 0 {
		target.MaxHP = DefaultMaxHP
	}
	if amount <= 0 {
		return target, 0
	}
	prev := target.CurrentHP
	if prev < 0 {
		prev = 0
	}
	healed := target.MaxHP - prev
	if healed > amount {
		healed = amount
	}
	if healed > 0 {
		target.Dead = false
	}
	target.CurrentHP = prev + healed
	return target, healed
}

// EndReason states why combat ended.
type EndReason string

const (
	EndEnemiesDefeated  EndReason = "all enemies defeated"
	EndPartyUnconscious EndReason = "all party members unconscious"
	EndPartyDead        EndReason = "all party members dead"
)

// EndState is the result of an end-of-combat check.
type EndState struct {
	Ended  bool
	Reason EndReason
}

// CheckEndOfCombat reports whether the encounter is over. Combat ends when
// every enemy is at 0 HP, or every party member is unconscious or dead; the
// party reason distinguishes full death from mere unconsciousness.
//
// Precondition: party and enemies must be non-empty for a meaningful answer;
// an empty enemy list counts as defeated.
func CheckEndOfCombat(party, enemies []CharacterState) EndState {
	allEnemiesDown := true
	for _, e := range enemies {
		if e.CurrentHP > 0 {
			allEnemiesDown = false
			break
		}
	}
	if allEnemiesDown {
		return EndState{Ended: true, Reason: EndEnemiesDefeated}
	}

	allPartyDown := len(party) > 0
	allPartyDead := len(party) > 0
	for _, p := range party {
		if !UnconsciousOrDead(p, false) {
			allPartyDown = false
		}
		if !p.Dead {
			allPartyDead = false
		}
	}
	if allPartyDown {
		if allPartyDead {
			return EndState{Ended: true, Reason: EndPartyDead}
		}
		return EndState{Ended: true, Reason: EndPartyUnconscious}
	}

	return EndState{}
}

// HPBand is a qualitative health description for AI decision-makers.
// It is presentation only and never feeds back into rules logic.
type HPBand string

const (
	BandHealthy      HPBand = "Healthy"
	BandInjured      HPBand = "Injured"
	BandWounded      HPBand = "Wounded"
	BandBadlyWounded HPBand = "Badly Wounded"
	BandDefeated     HPBand = "Defeated"
)

// HPStatus maps an HP percentage to a descriptive band:
// Healthy >= 90%, Injured >= 60%, Wounded >= 20%, Badly Wounded > 0%, Defeated = 0%.
func HPStatus(current, max int) HPBand {
	if max <= 0 {
		max = DefaultMaxHP
	}
	if current <= 0 {
		return BandDefeated
	}
	pct := current * 100 / max
	switch {
	case pct >= 90:
		return BandHealthy
	case pct >= 60:
		return BandInjured
	case pct >= 20:
		return BandWounded
	default:
		return BandBadlyWounded
	}
}

// DeriveStatus computes the display status for a combatant.
func DeriveStatus(s CharacterState, enemy bool) Status {
	switch {
	case s.Dead || (enemy && s.CurrentHP <= 0):
		return StatusDead
	case s.CurrentHP <= 0:
		return StatusUnconscious
	default:
		return StatusActive
	}
}

// FindByID returns a pointer to the state with the given ID, or nil.
func FindByID(states []CharacterState, id string) *CharacterState {
	for i := range states {
		if states[i].ID == id {
			return &states[i]
		}
	}
	return nil
}

// Describe returns a compact one-line health summary, e.g. "Goblin 1 (3/7 HP)".
func Describe(s CharacterState) string {
	return fmt.Sprintf("%s (%d/%d HP)", s.Name, s.CurrentHP, s.MaxHP)
}
