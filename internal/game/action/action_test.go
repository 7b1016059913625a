package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/action"
	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/rules"
)

func fighter() rules.CharacterState {
	return rules.CharacterState{
		ID:         "elara",
		Name:       "Elara",
		CurrentHP:  20,
		MaxHP:      20,
		ArmorClass: 16,
		Abilities: rules.AbilityModifiers{
			Strength:  3,
			Dexterity: 1,
			Wisdom:    2,
		},
		ProficiencyBonus: 2,
	}
}

func TestResolveWeaponAttack_Melee(t *testing.T) {
	w := rules.Weapon{Name: "Espada larga", Damage: "1d8"}
	r := action.ResolveWeaponAttack(fighter(), w, "goblin-1")

	require.Len(t, r.Rolls, 2)
	assert.Equal(t, action.RollAttack, r.Rolls[0].Kind)
	assert.Equal(t, "1d20+5", r.Rolls[0].Expression)
	assert.Equal(t, action.RollDamage, r.Rolls[1].Kind)
	assert.Equal(t, "1d8+3", r.Rolls[1].Expression)
	assert.True(t, r.Rolls[1].RequiresHit)
	assert.Equal(t, "goblin-1", r.TargetID)
}

func TestResolveWeaponAttack_FinesseUsesBestOfStrDex(t *testing.T) {
	actor := fighter()
	actor.Abilities.Dexterity = 4

	w := rules.Weapon{Name: "Daga", Damage: "1d4"}
	r := action.ResolveWeaponAttack(actor, w, "goblin-1")
	assert.Equal(t, "1d20+6", r.Rolls[0].Expression)
	assert.Equal(t, "1d4+4", r.Rolls[1].Expression)
}

func TestResolveWeaponAttack_RangedUsesDex(t *testing.T) {
	// Name heuristic: "arco" is ranged even without structured properties.
	w := rules.Weapon{Name: "Arco corto", Damage: "1d6"}
	r := action.ResolveWeaponAttack(fighter(), w, "goblin-1")
	assert.Equal(t, "1d20+3", r.Rolls[0].Expression)
	assert.Equal(t, "1d6+1", r.Rolls[1].Expression)
}

func TestResolveWeaponAttack_StructuredPropertiesWin(t *testing.T) {
	// An unrecognized name with an explicit property resolves by the property.
	w := rules.Weapon{Name: "Reliquia extraña", Damage: "1d10", Properties: []string{"ranged"}}
	r := action.ResolveWeaponAttack(fighter(), w, "goblin-1")
	assert.Equal(t, "1d20+3", r.Rolls[0].Expression)
}

func TestResolveWeaponAttack_DescriptionKeywords(t *testing.T) {
	w := rules.Weapon{Name: "Reliquia", Damage: "1d6", Description: "Un arma arrojadiza a distancia"}
	r := action.ResolveWeaponAttack(fighter(), w, "goblin-1")
	assert.Equal(t, "1d20+3", r.Rolls[0].Expression)
}

func TestResolveSpell_Healing(t *testing.T) {
	s := rules.Spell{Name: "Palabra de curación", Damage: "1d4+2", Healing: true}
	r := action.ResolveSpell(fighter(), s, "borin")

	require.Len(t, r.Rolls, 1)
	assert.Equal(t, action.RollHealing, r.Rolls[0].Kind)
	assert.Equal(t, "1d4+2", r.Rolls[0].Expression)
	assert.False(t, r.Rolls[0].RequiresHit)
}

func TestResolveSpell_SaveBased(t *testing.T) {
	s := rules.Spell{Name: "Manos ardientes", Damage: "3d6", SaveBased: true}
	r := action.ResolveSpell(fighter(), s, "goblin-1")

	require.Len(t, r.Rolls, 1)
	assert.Equal(t, action.RollDamage, r.Rolls[0].Kind)
	assert.True(t, r.Rolls[0].SavingThrow)
	assert.False(t, r.Rolls[0].RequiresHit)
}

func TestResolveSpell_AttackSpell(t *testing.T) {
	s := rules.Spell{Name: "Rayo de escarcha", Damage: "1d8"}
	r := action.ResolveSpell(fighter(), s, "goblin-1")

	require.Len(t, r.Rolls, 2)
	// Best mental modifier is Wisdom +2, plus proficiency +2.
	assert.Equal(t, "1d20+4", r.Rolls[0].Expression)
	assert.Equal(t, "1d8", r.Rolls[1].Expression)
}

func goblinWithActions() rules.CharacterState {
	bonus := 4
	return rules.CharacterState{
		ID: "goblin-1", Name: "Goblin", CurrentHP: 7, MaxHP: 7, ArmorClass: 12,
		Abilities:        rules.AbilityModifiers{Strength: -1, Dexterity: 2},
		ProficiencyBonus: 2,
		Actions: []rules.StatAction{
			{Name: "Cimitarra", AttackBonus: &bonus, Damage: "1d6+2"},
		},
	}
}

func TestResolveStatAction_ExplicitMatch(t *testing.T) {
	r := action.ResolveStatAction(goblinWithActions(), "ataca con la cimitarra", "elara")

	require.Len(t, r.Rolls, 2)
	assert.Equal(t, "1d20+4", r.Rolls[0].Expression)
	assert.Equal(t, "1d6+2", r.Rolls[1].Expression)
}

func TestResolveStatAction_AccentInsensitiveMatch(t *testing.T) {
	r := action.ResolveStatAction(goblinWithActions(), "Cimitárra", "elara")
	assert.Equal(t, "1d20+4", r.Rolls[0].Expression)
}

func TestResolveStatAction_GenericAttackFallback(t *testing.T) {
	r := action.ResolveStatAction(goblinWithActions(), "ataque", "elara")
	assert.Equal(t, "1d20+4", r.Rolls[0].Expression)
	assert.Equal(t, "1d6+2", r.Rolls[1].Expression)
}

func TestResolveStatAction_UnarmedBaseline(t *testing.T) {
	g := goblinWithActions()
	g.Actions = nil
	r := action.ResolveStatAction(g, "ataque", "elara")

	require.Len(t, r.Rolls, 2)
	// Strength -1, proficiency +2.
	assert.Equal(t, "1d20+1", r.Rolls[0].Expression)
	assert.Equal(t, "1d4-1", r.Rolls[1].Expression)
}

func executor(t *testing.T, values ...int) *action.Executor {
	t.Helper()
	roller := dice.NewRoller(dice.NewSequenceSource(values...), zap.NewNop())
	return action.NewExecutor(roller, zap.NewNop())
}

func attackAction() action.Resolved {
	return action.Resolved{
		ActorID: "elara", ActorName: "Elara", TargetID: "goblin-1",
		Description: "Elara ataca con Espada larga",
		Rolls: []action.RollRequest{
			{Kind: action.RollAttack, Expression: "1d20+5", Description: "Ataque"},
			{Kind: action.RollDamage, Expression: "1d6+3", Description: "Daño", RequiresHit: true},
		},
	}
}

func TestExecute_HitDealsDamage(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	// d20 face 17 → 22 vs AC 12 hit; 1d6 face 4 → 7 damage, goblin drops to 0.
	e := executor(t, 16, 3)
	res := e.Execute(attackAction(), party, enemies)

	require.Len(t, res.Rolls, 2)
	assert.True(t, res.Hit)
	assert.Equal(t, dice.OutcomeSuccess, res.Rolls[0].Outcome)
	assert.Equal(t, 7, res.DamageDealt)
	assert.Equal(t, 0, res.Enemies[0].CurrentHP)
	assert.True(t, res.Enemies[0].Dead)
	assert.True(t, res.Killed)
	assert.True(t, res.End.Ended)
	assert.Equal(t, rules.EndEnemiesDefeated, res.End.Reason)

	// Inputs are untouched.
	assert.Equal(t, 7, enemies[0].CurrentHP)
}

func TestExecute_MissSkipsDamage(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	// d20 face 3 → 8 vs AC 12 miss.
	e := executor(t, 2, 3)
	res := e.Execute(attackAction(), party, enemies)

	require.Len(t, res.Rolls, 1)
	assert.False(t, res.Hit)
	assert.Equal(t, dice.OutcomeFail, res.Rolls[0].Outcome)
	assert.Equal(t, 0, res.DamageDealt)
	assert.Equal(t, 7, res.Enemies[0].CurrentHP)
	assert.False(t, res.End.Ended)
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "falla")
}

func TestExecute_CriticalDoublesDamageDice(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	g := goblinWithActions()
	g.MaxHP = 30
	g.CurrentHP = 30
	enemies := []rules.CharacterState{g}

	// d20 face 20 → crit; damage becomes 2d6+3, faces 4 and 4 → 11.
	e := executor(t, 19, 3, 3)
	res := e.Execute(attackAction(), party, enemies)

	require.Len(t, res.Rolls, 2)
	assert.True(t, res.Critical)
	assert.Equal(t, dice.OutcomeCrit, res.Rolls[0].Outcome)
	assert.Equal(t, "2d6+3", res.Rolls[1].Expression)
	assert.Equal(t, 11, res.DamageDealt)
	assert.Equal(t, 19, res.Enemies[0].CurrentHP)
}

func TestExecute_FumbleIsAMiss(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	// d20 face 1 → 6 vs AC 12, fumble and miss.
	e := executor(t, 0, 3)
	res := e.Execute(attackAction(), party, enemies)

	require.Len(t, res.Rolls, 1)
	assert.True(t, res.Fumble)
	assert.Equal(t, dice.OutcomeFumble, res.Rolls[0].Outcome)
	assert.Equal(t, 7, res.Enemies[0].CurrentHP)
}

func TestExecute_SavingThrowDamageNeedsNoAttack(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	act := action.Resolved{
		ActorID: "elara", ActorName: "Elara", TargetID: "goblin-1",
		Rolls: []action.RollRequest{
			{Kind: action.RollDamage, Expression: "3d6", Description: "Manos ardientes", SavingThrow: true},
		},
	}
	// Faces 2, 3, 1 → 6 damage.
	e := executor(t, 1, 2, 0)
	res := e.Execute(act, party, enemies)

	require.Len(t, res.Rolls, 1)
	assert.Equal(t, 6, res.DamageDealt)
	assert.Equal(t, 1, res.Enemies[0].CurrentHP)
}

func TestExecute_HealingRevivesUnconscious(t *testing.T) {
	down := fighter()
	down.CurrentHP = 0
	party := []rules.CharacterState{down}
	enemies := []rules.CharacterState{goblinWithActions()}

	act := action.Resolved{
		ActorID: "borin", ActorName: "Borin", TargetID: "elara",
		Rolls: []action.RollRequest{
			{Kind: action.RollHealing, Expression: "1d8", Description: "Curación"},
		},
	}
	// Face 5 → HP becomes 5.
	e := executor(t, 4)
	res := e.Execute(act, party, enemies)

	assert.Equal(t, 5, res.Party[0].CurrentHP)
	assert.False(t, res.Party[0].Dead)
	assert.Equal(t, 5, res.Healed)
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "vuelve en sí")
}

func TestExecute_HealingCapsAtMax(t *testing.T) {
	hurt := fighter()
	hurt.CurrentHP = 18
	party := []rules.CharacterState{hurt}

	act := action.Resolved{
		ActorID: "borin", ActorName: "Borin", TargetID: "elara",
		Rolls: []action.RollRequest{
			{Kind: action.RollHealing, Expression: "1d8", Description: "Curación"},
		},
	}
	e := executor(t, 7) // face 8, only 2 usable
	res := e.Execute(act, party, []rules.CharacterState{goblinWithActions()})

	assert.Equal(t, 20, res.Party[0].CurrentHP)
	assert.Equal(t, 2, res.Healed)
}

func TestExecute_DefaultACWhenMissing(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	g := goblinWithActions()
	g.ArmorClass = 0
	enemies := []rules.CharacterState{g}

	// d20 face 6 → 11 vs default AC 10: hit.
	e := executor(t, 5, 2)
	res := e.Execute(attackAction(), party, enemies)

	assert.True(t, res.Hit)
	assert.Equal(t, 6, res.DamageDealt)
}

func TestExecute_MalformedRollFailsOnlyThatRoll(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	act := attackAction()
	act.Rolls[0].Expression = "garbage"
	e := executor(t, 3)
	res := e.Execute(act, party, enemies)

	// The attack roll failed, so no hit was established and damage is skipped.
	assert.Empty(t, res.Rolls)
	assert.False(t, res.Hit)
	assert.Equal(t, 7, res.Enemies[0].CurrentHP)
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "no pudo resolverse")
}

func TestExecute_NonPositiveDamageIsNoEffect(t *testing.T) {
	party := []rules.CharacterState{fighter()}
	enemies := []rules.CharacterState{goblinWithActions()}

	act := action.Resolved{
		ActorID: "elara", ActorName: "Elara", TargetID: "goblin-1",
		Rolls: []action.RollRequest{
			{Kind: action.RollDamage, Expression: "1d4-3", Description: "Daño", SavingThrow: true},
		},
	}
	e := executor(t, 1) // face 2, total -1
	res := e.Execute(act, party, enemies)

	assert.Equal(t, 0, res.DamageDealt)
	assert.Equal(t, 7, res.Enemies[0].CurrentHP)
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "ningún efecto")
}
