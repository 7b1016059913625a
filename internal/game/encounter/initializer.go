package encounter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/narrator"
	"github.com/emberfall/skirmish/internal/game/roster"
	"github.com/emberfall/skirmish/internal/game/rules"
	"github.com/emberfall/skirmish/internal/game/trigger"
)

// PartyMember is one player-side participant in a new encounter.
type PartyMember struct {
	State rules.CharacterState
	// Companion marks AI-controlled allies.
	Companion bool
}

// StartRequest describes the encounter to initialize. Enemy states may be
// partial: missing HP, AC, or abilities are filled from the stat lookup, or
// from defaults when the creature is unknown.
type StartRequest struct {
	Party   []PartyMember
	Enemies []rules.CharacterState
	// SurprisedSide is the side flagged by the trigger evaluator, if any.
	SurprisedSide  trigger.Side
	LocationID     string
	LocationFlavor string
	History        []string
}

// StartEncounter orchestrates combat initialization: validate participants,
// assign canonical IDs and stats, roll initiative, narrate the opening, and
// process the first turn automatically when it belongs to an AI combatant.
// With no valid hostile entities, combat simply does not start; the returned
// snapshot carries a flavor message and no partial state.
func (e *Engine) StartEncounter(ctx context.Context, req StartRequest) Output {
	s := &Session{
		locationID:     req.LocationID,
		locationFlavor: req.LocationFlavor,
		history:        req.History,
		phase:          PhaseSetup,
		logger:         e.logger,
	}

	party, enemies := e.validateParticipants(req)
	if len(enemies) == 0 {
		s.appendMessage("Golpeas al aire: no hay nada contra lo que luchar.")
		return s.Snapshot()
	}

	s.party = make([]rules.CharacterState, len(party))
	for i, m := range party {
		s.party[i] = rules.ValidateAndClampHP(m.State)
	}
	s.enemies = e.assignEnemyStats(enemies)
	s.inCombat = true

	s.order = e.rollInitiative(s, party)
	e.markSurprised(s, req.SurprisedSide)

	if opening := e.openingNarration(ctx, s); opening != "" {
		s.appendMessage(opening)
	}

	s.phase = PhaseTurnStart
	e.runTurnStart(ctx, s)
	return s.Snapshot()
}

// validateParticipants drops already-dead combatants from both sides. Dropping
// is silent toward the player: logged, never an error.
func (e *Engine) validateParticipants(req StartRequest) ([]PartyMember, []rules.CharacterState) {
	var party []PartyMember
	for _, m := range req.Party {
		if m.State.Dead {
			e.logger.Info("dropping dead party member from encounter",
				zap.String("id", m.State.ID))
			continue
		}
		party = append(party, m)
	}
	var enemies []rules.CharacterState
	for _, en := range req.Enemies {
		if en.Dead {
			e.logger.Info("dropping dead enemy from encounter",
				zap.String("id", en.ID))
			continue
		}
		enemies = append(enemies, en)
	}
	return party, enemies
}

// assignEnemyStats gives each enemy a canonical per-encounter ID of the form
// {baseId}-{n}, numbered 1-based within its species, and fills missing stats
// from the reference lookup or documented defaults. Initialization never
// blocks on missing data.
func (e *Engine) assignEnemyStats(enemies []rules.CharacterState) []rules.CharacterState {
	counts := make(map[string]int)
	out := make([]rules.CharacterState, len(enemies))
	for i, en := range enemies {
		baseID := en.ID
		if baseID == "" {
			baseID = strings.ReplaceAll(roster.Normalize(en.Name), " ", "-")
		}
		counts[baseID]++
		en.ID = fmt.Sprintf("%s-%d", baseID, counts[baseID])

		if en.MaxHP <= 0 || en.ArmorClass <= 0 {
			if block := e.stats.Lookup(en.Name); block != nil {
				if en.MaxHP <= 0 {
					en.MaxHP = block.HP
					en.CurrentHP = block.HP
				}
				if en.ArmorClass <= 0 {
					en.ArmorClass = block.ArmorClass
				}
				if en.Abilities == (rules.AbilityModifiers{}) {
					en.Abilities = block.Abilities
				}
				if en.ProficiencyBonus == 0 {
					en.ProficiencyBonus = block.ProficiencyBonus
				}
				if len(en.Actions) == 0 {
					en.Actions = block.Actions
				}
			} else {
				e.logger.Warn("creature not in bestiary, using default stats",
					zap.String("name", en.Name),
					zap.Int("hp", e.defaultHP),
					zap.Int("ac", e.defaultAC))
				if en.MaxHP <= 0 {
					en.MaxHP = e.defaultHP
					en.CurrentHP = e.defaultHP
				}
				if en.ArmorClass <= 0 {
					en.ArmorClass = e.defaultAC
				}
			}
		}
		if en.CurrentHP <= 0 {
			en.CurrentHP = en.MaxHP
		}
		out[i] = rules.ValidateAndClampHP(en)
	}
	return out
}

// rollInitiative rolls 1d20 + Dexterity modifier for every combatant and
// returns the initiative order sorted descending, ties broken by insertion
// order.
func (e *Engine) rollInitiative(s *Session, party []PartyMember) []rules.Combatant {
	display := roster.AssignDisplayNames(namedEnemies(s.enemies))

	var order []rules.Combatant
	for _, m := range party {
		c := rules.Combatant{
			ID:          m.State.ID,
			DisplayName: m.State.Name,
			Controller:  rules.ControllerPlayer,
			Kind:        rules.KindPlayerCharacter,
		}
		if m.Companion {
			c.Controller = rules.ControllerAI
			c.Kind = rules.KindCompanion
		}
		c.Initiative = e.initiativeRoll(s, c.DisplayName, m.State.Abilities.Dexterity)
		order = append(order, c)
	}
	for _, en := range s.enemies {
		c := rules.Combatant{
			ID:          en.ID,
			DisplayName: display[en.ID],
			Controller:  rules.ControllerAI,
			Kind:        rules.KindEnemy,
		}
		c.Initiative = e.initiativeRoll(s, c.DisplayName, en.Abilities.Dexterity)
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Initiative > order[j].Initiative
	})
	return order
}

// initiativeRoll rolls one combatant's initiative and records it in the roll
// log. A roller failure scores 0 rather than blocking the encounter.
func (e *Engine) initiativeRoll(s *Session, name string, dexMod int) int {
	expr := "1d20"
	if dexMod != 0 {
		expr = fmt.Sprintf("1d20%+d", dexMod)
	}
	roll, err := e.roller.Roll(name, expr, "Iniciativa")
	if err != nil {
		e.logger.Error("initiative roll failed", zap.String("name", name), zap.Error(err))
		return 0
	}
	roll.Outcome = dice.OutcomeInitiative
	s.rolls = append(s.rolls, roll)
	return roll.Total
}

// markSurprised flags the surprised side's initiative entries.
func (e *Engine) markSurprised(s *Session, side trigger.Side) {
	if side != trigger.SideParty && side != trigger.SideEnemies {
		return
	}
	for i := range s.order {
		enemy := s.order[i].IsEnemy()
		if (side == trigger.SideEnemies) == enemy {
			s.order[i].Surprised = true
		}
	}
}

// openingNarration generates the start-of-combat scene and post-processes it
// so raw IDs and base species names come out as disambiguated display names.
func (e *Engine) openingNarration(ctx context.Context, s *Session) string {
	req := narrator.OpeningRequest{LocationFlavor: s.locationFlavor}
	for _, c := range s.order {
		st := s.stateOf(c)
		if st == nil {
			continue
		}
		req.Combatants = append(req.Combatants, narrator.CombatantSummary{
			DisplayName: c.DisplayName,
			Enemy:       c.IsEnemy(),
			CurrentHP:   st.CurrentHP,
			MaxHP:       st.MaxHP,
			Surprised:   c.Surprised,
		})
	}

	text, err := e.gen.NarrateOpening(ctx, req)
	if err != nil {
		e.logger.Warn("opening narration failed", zap.Error(err))
		return ""
	}

	replacements := make(map[string]string)
	firstOfSpecies := make(map[string]string)
	for _, c := range s.order {
		if !c.IsEnemy() {
			continue
		}
		replacements[c.ID] = c.DisplayName
		st := rules.FindByID(s.enemies, c.ID)
		if st == nil {
			continue
		}
		if _, seen := firstOfSpecies[st.Name]; !seen {
			firstOfSpecies[st.Name] = c.DisplayName
		}
	}
	for base, displayName := range firstOfSpecies {
		replacements[base] = displayName
	}
	// Display names map to themselves so the longest-first pass cannot
	// corrupt them via their base-name prefix.
	for _, c := range s.order {
		if c.IsEnemy() {
			replacements[c.DisplayName] = c.DisplayName
		}
	}
	return roster.ReplaceNamesLongestFirst(text, replacements)
}

func namedEnemies(enemies []rules.CharacterState) []roster.Named {
	named := make([]roster.Named, len(enemies))
	for i, en := range enemies {
		named[i] = roster.Named{ID: en.ID, Name: en.Name}
	}
	return named
}
