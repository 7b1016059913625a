package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/emberfall/skirmish/internal/game/roster"
	"github.com/emberfall/skirmish/internal/game/rules"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "goblin", roster.Normalize("Góblin"))
	assert.Equal(t, "decimo", roster.Normalize("DÉCIMO"))
	assert.Equal(t, "arana gigante", roster.Normalize("  Araña Gigante "))
}

func TestAssignDisplayNames(t *testing.T) {
	names := roster.AssignDisplayNames([]roster.Named{
		{ID: "goblin-1", Name: "Goblin"},
		{ID: "wolf-1", Name: "Lobo"},
		{ID: "goblin-2", Name: "Goblin"},
	})
	assert.Equal(t, "Goblin 1", names["goblin-1"])
	assert.Equal(t, "Goblin 2", names["goblin-2"])
	// A lone creature is still numbered for consistency.
	assert.Equal(t, "Lobo 1", names["wolf-1"])
}

func TestAssignDisplayNames_Property_OneEntryPerEnemy(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		species := []string{"Goblin", "Orco", "Lobo"}
		var in []roster.Named
		for i := 0; i < n; i++ {
			in = append(in, roster.Named{
				ID:   rapid.StringMatching(`[a-z]{3,8}`).Draw(rt, "id") + string(rune('a'+i)),
				Name: species[rapid.IntRange(0, 2).Draw(rt, "sp")],
			})
		}
		out := roster.AssignDisplayNames(in)
		assert.Len(rt, out, n)
		seen := map[string]bool{}
		for _, v := range out {
			assert.False(rt, seen[v], "duplicate display name %q", v)
			seen[v] = true
		}
	})
}

func TestDisplayFromCanonicalID(t *testing.T) {
	d, ok := roster.DisplayFromCanonicalID("goblin-2", "Goblin")
	assert.True(t, ok)
	assert.Equal(t, "Goblin 2", d)

	_, ok = roster.DisplayFromCanonicalID("goblin", "Goblin")
	assert.False(t, ok)
	_, ok = roster.DisplayFromCanonicalID("goblin-x", "Goblin")
	assert.False(t, ok)

	// The base segment must name the same creature; a wolf ID never maps
	// onto a goblin's display name.
	_, ok = roster.DisplayFromCanonicalID("lobo-1", "Goblin")
	assert.False(t, ok)

	d, ok = roster.DisplayFromCanonicalID("arana-gigante-2", "Araña Gigante")
	assert.True(t, ok)
	assert.Equal(t, "Araña Gigante 2", d)
}

func TestRewriteOrdinals(t *testing.T) {
	enemies := []roster.Named{
		{ID: "goblin-1", Name: "Goblin"},
		{ID: "goblin-2", Name: "Goblin"},
		{ID: "orc-1", Name: "Orco"},
	}
	tests := []struct{ in, want string }{
		{"ataco al segundo goblin", "ataco a Goblin 2"},
		{"el primer goblin", "Goblin 1"},
		{"El Segundo Goblin", "Goblin 2"},
		{"la primera goblin", "Goblin 1"},
		{"el goblin más cercano", "Goblin 1"},
		{"el goblin mas proximo", "Goblin 1"},
		{"el tercer goblin", "el tercer goblin"}, // only two exist
		{"algo sin ordinales", "algo sin ordinales"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, roster.RewriteOrdinals(tc.in, enemies), "in=%q", tc.in)
	}
}

func TestReplaceNamesLongestFirst(t *testing.T) {
	out := roster.ReplaceNamesLongestFirst(
		"Goblin 2 se esconde mientras Goblin ataca y goblin-1 gruñe",
		map[string]string{
			"Goblin":   "Goblin 1",
			"goblin-1": "Goblin 1",
		},
	)
	// "Goblin 2" must survive: the longer key "goblin-1" runs first and the
	// short "Goblin" rewrite must not corrupt an existing display name.
	assert.Contains(t, out, "Goblin 1 ataca")
	assert.Contains(t, out, "Goblin 1 gruñe")
}

func combatOrder() ([]rules.CharacterState, []rules.Combatant) {
	enemies := []rules.CharacterState{
		{ID: "goblin-1", Name: "Goblin", CurrentHP: 7, MaxHP: 7},
		{ID: "goblin-2", Name: "Goblin", CurrentHP: 7, MaxHP: 7},
		{ID: "orc-1", Name: "Orco", CurrentHP: 15, MaxHP: 15},
	}
	order := []rules.Combatant{
		{ID: "pc-1", DisplayName: "Elara", Kind: rules.KindPlayerCharacter, Controller: rules.ControllerPlayer},
		{ID: "goblin-1", DisplayName: "Goblin 1", Kind: rules.KindEnemy, Controller: rules.ControllerAI},
		{ID: "goblin-2", DisplayName: "Goblin 2", Kind: rules.KindEnemy, Controller: rules.ControllerAI},
		{ID: "orc-1", DisplayName: "Orco 1", Kind: rules.KindEnemy, Controller: rules.ControllerAI},
	}
	return enemies, order
}

func TestResolveTarget_CanonicalID(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("goblin-2", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "goblin-2", r.ID)
}

func TestResolveTarget_DisplayName(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("Goblin 2", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "goblin-2", r.ID)

	// Accent/case-insensitive.
	r = roster.ResolveTarget("góblin 2", enemies, order)
	assert.Equal(t, "goblin-2", r.ID)
}

func TestResolveTarget_CanonicalIDAcrossSpecies(t *testing.T) {
	// The stored IDs differ from the canonical {base}-{n} scheme, so the
	// reference falls through to the ID-to-display derivation. It must land
	// on the wolf, not on whichever species happens to be listed first.
	enemies := []rules.CharacterState{
		{ID: "g1", Name: "Goblin", CurrentHP: 7, MaxHP: 7},
		{ID: "w1", Name: "Lobo", CurrentHP: 11, MaxHP: 11},
	}
	order := []rules.Combatant{
		{ID: "g1", DisplayName: "Goblin 1", Kind: rules.KindEnemy, Controller: rules.ControllerAI},
		{ID: "w1", DisplayName: "Lobo 1", Kind: rules.KindEnemy, Controller: rules.ControllerAI},
	}

	r := roster.ResolveTarget("lobo-1", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "w1", r.ID)

	r = roster.ResolveTarget("goblin-1", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "g1", r.ID)
}

func TestResolveTarget_Ordinal(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("el segundo goblin", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "goblin-2", r.ID)
}

func TestResolveTarget_BareSpeciesAmbiguous(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("Goblin", enemies, order)
	assert.False(t, r.Resolved())
	assert.True(t, r.Ambiguous)
	assert.Equal(t, []string{"Goblin 1", "Goblin 2"}, r.Matches)
}

func TestResolveTarget_BareSpeciesUnique(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("orco", enemies, order)
	assert.True(t, r.Resolved())
	assert.Equal(t, "orc-1", r.ID)
}

func TestResolveTarget_Unknown(t *testing.T) {
	enemies, order := combatOrder()
	r := roster.ResolveTarget("dragón", enemies, order)
	assert.False(t, r.Resolved())
	assert.False(t, r.Ambiguous)
	assert.Empty(t, r.ID)
}
