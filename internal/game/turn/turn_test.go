package turn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/emberfall/skirmish/internal/game/rules"
	"github.com/emberfall/skirmish/internal/game/turn"
)

func TestNextIndex(t *testing.T) {
	tests := []struct {
		name            string
		current, length int
		want            int
	}{
		{"advance", 0, 4, 1},
		{"wrap", 3, 4, 0},
		{"single slot", 0, 1, 0},
		{"empty order", 0, 0, 0},
		{"negative length", 2, -1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, turn.NextIndex(tc.current, tc.length))
		})
	}
}

func TestNextIndexStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 50).Draw(t, "length")
		current := rapid.IntRange(0, length-1).Draw(t, "current")
		next := turn.NextIndex(current, length)
		assert.GreaterOrEqual(t, next, 0)
		assert.Less(t, next, length)
	})
}

func fixture() ([]rules.Combatant, []rules.CharacterState, []rules.CharacterState) {
	order := []rules.Combatant{
		{ID: "elara", DisplayName: "Elara", Initiative: 18, Controller: rules.ControllerPlayer, Kind: rules.KindPlayerCharacter},
		{ID: "goblin-1", DisplayName: "Goblin 1", Initiative: 14, Controller: rules.ControllerAI, Kind: rules.KindEnemy},
		{ID: "borin", DisplayName: "Borin", Initiative: 11, Controller: rules.ControllerAI, Kind: rules.KindCompanion},
		{ID: "goblin-2", DisplayName: "Goblin 2", Initiative: 7, Controller: rules.ControllerAI, Kind: rules.KindEnemy},
	}
	party := []rules.CharacterState{
		{ID: "elara", Name: "Elara", CurrentHP: 12, MaxHP: 12},
		{ID: "borin", Name: "Borin", CurrentHP: 9, MaxHP: 9},
	}
	enemies := []rules.CharacterState{
		{ID: "goblin-1", Name: "Goblin", CurrentHP: 7, MaxHP: 7},
		{ID: "goblin-2", Name: "Goblin", CurrentHP: 7, MaxHP: 7},
	}
	return order, party, enemies
}

func TestShouldSkip(t *testing.T) {
	order, party, enemies := fixture()

	assert.False(t, turn.ShouldSkip(order[0], party, enemies))

	// Unconscious party member is skipped.
	party[0].CurrentHP = 0
	assert.True(t, turn.ShouldSkip(order[0], party, enemies))

	// Enemy at zero HP is dead, hence skipped.
	enemies[1].CurrentHP = 0
	assert.True(t, turn.ShouldSkip(order[3], party, enemies))
	assert.False(t, turn.ShouldSkip(order[1], party, enemies))

	// A slot with no matching sheet cannot act.
	ghost := rules.Combatant{ID: "nobody", Kind: rules.KindEnemy}
	assert.True(t, turn.ShouldSkip(ghost, party, enemies))
}

func TestFindNextActive(t *testing.T) {
	order, party, enemies := fixture()

	// The start index itself counts when its combatant can act.
	idx, skipped := turn.FindNextActive(1, order, party, enemies)
	assert.Equal(t, 1, idx)
	assert.Empty(t, skipped)

	// Downed combatants between the start slot and the next active one are
	// reported as skipped.
	enemies[0].CurrentHP = 0
	party[1].CurrentHP = 0
	idx, skipped = turn.FindNextActive(1, order, party, enemies)
	assert.Equal(t, 3, idx)
	require.Len(t, skipped, 2)
	assert.Equal(t, "goblin-1", skipped[0].ID)
	assert.Equal(t, "borin", skipped[1].ID)
}

func TestFindNextActivePrecomputedStatus(t *testing.T) {
	order, party, enemies := fixture()

	// A precomputed status on the entry wins over the live HP state.
	order[1].Status = rules.StatusDead
	idx, skipped := turn.FindNextActive(1, order, party, enemies)
	assert.Equal(t, 2, idx)
	require.Len(t, skipped, 1)
	assert.Equal(t, "goblin-1", skipped[0].ID)
}

func TestFindNextActiveWraps(t *testing.T) {
	order, party, enemies := fixture()
	enemies[1].CurrentHP = 0

	idx, skipped := turn.FindNextActive(3, order, party, enemies)
	assert.Equal(t, 0, idx)
	require.Len(t, skipped, 1)
	assert.Equal(t, "goblin-2", skipped[0].ID)
}

func TestFindNextActiveAllDown(t *testing.T) {
	order, party, enemies := fixture()
	for i := range party {
		party[i].CurrentHP = 0
	}
	for i := range enemies {
		enemies[i].CurrentHP = 0
	}

	idx, skipped := turn.FindNextActive(1, order, party, enemies)
	assert.Equal(t, 1, idx)
	assert.Len(t, skipped, len(order))
}

func TestFindNextActiveEmptyOrder(t *testing.T) {
	idx, skipped := turn.FindNextActive(0, nil, nil, nil)
	assert.Equal(t, 0, idx)
	assert.Empty(t, skipped)
}

func TestHasMoreAutomaticTurns(t *testing.T) {
	order, party, enemies := fixture()

	assert.False(t, turn.HasMoreAutomaticTurns(order[0], party, enemies, false),
		"conscious player waits for input")
	assert.True(t, turn.HasMoreAutomaticTurns(order[1], party, enemies, false),
		"AI enemy acts automatically")
	assert.True(t, turn.HasMoreAutomaticTurns(order[2], party, enemies, false),
		"AI companion acts automatically")

	party[0].CurrentHP = 0
	assert.True(t, turn.HasMoreAutomaticTurns(order[0], party, enemies, false),
		"downed player's turn is skipped automatically")

	assert.False(t, turn.HasMoreAutomaticTurns(order[1], party, enemies, true),
		"finished combat processes nothing")
}
