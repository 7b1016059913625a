package bestiary_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/bestiary"
	"github.com/emberfall/skirmish/internal/game/rules"
)

const goblinYAML = `
creatures:
  - name: Goblin
    hp: 7
    armor_class: 12
    abilities:
      strength: -1
      dexterity: 2
    proficiency_bonus: 2
    actions:
      - name: Cimitarra
        attack_bonus: 4
        damage: 1d6+2
  - name: Orco
    hp: 15
    armor_class: 13
    abilities:
      strength: 3
    proficiency_bonus: 2
`

func TestLoadBytesAndLookup(t *testing.T) {
	b := bestiary.New(zap.NewNop())
	require.NoError(t, b.LoadBytes([]byte(goblinYAML), "test"))
	assert.Equal(t, 2, b.Len())

	g := b.Lookup("Goblin")
	require.NotNil(t, g)
	assert.Equal(t, 7, g.HP)
	assert.Equal(t, 12, g.ArmorClass)
	assert.Equal(t, 2, g.Abilities.Dexterity)
	require.Len(t, g.Actions, 1)
	require.NotNil(t, g.Actions[0].AttackBonus)
	assert.Equal(t, 4, *g.Actions[0].AttackBonus)
}

func TestLookupIsAccentInsensitive(t *testing.T) {
	b := bestiary.New(zap.NewNop())
	require.NoError(t, b.LoadBytes([]byte(goblinYAML), "test"))

	assert.NotNil(t, b.Lookup("góblin"))
	assert.NotNil(t, b.Lookup("GOBLIN"))
	assert.Nil(t, b.Lookup("dragón"))
}

func TestValidateAggregatesViolations(t *testing.T) {
	s := bestiary.StatBlock{
		Actions: []rules.StatAction{{Name: "Mordisco", Damage: "not-dice"}},
	}
	violations := s.Validate()
	assert.Len(t, violations, 4) // missing name, bad hp, bad ac, bad damage
	assert.Contains(t, violations[0], "name is required")
}

func TestLoadBytesRejectsInvalidBlock(t *testing.T) {
	b := bestiary.New(zap.NewNop())
	bad := `
creatures:
  - name: Fantasma
    hp: 0
    armor_class: 11
`
	err := b.LoadBytes([]byte(bad), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fantasma")
	assert.Equal(t, 0, b.Len())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goblins.yaml"), []byte(goblinYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	b := bestiary.New(zap.NewNop())
	require.NoError(t, b.LoadDir(dir))
	assert.Equal(t, 2, b.Len())
}
