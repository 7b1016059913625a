// Package main provides an interactive combat simulator: it loads a scenario,
// evaluates the combat trigger, runs the encounter turn by turn against
// player input on stdin, and optionally persists the transcript.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/emberfall/skirmish/internal/config"
	"github.com/emberfall/skirmish/internal/game/bestiary"
	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/encounter"
	"github.com/emberfall/skirmish/internal/game/narrator"
	"github.com/emberfall/skirmish/internal/game/rules"
	"github.com/emberfall/skirmish/internal/game/tactician"
	"github.com/emberfall/skirmish/internal/game/trigger"
	"github.com/emberfall/skirmish/internal/observability"
	"github.com/emberfall/skirmish/internal/storage/postgres"
)

// scenario is the YAML description of an encounter to simulate.
type scenario struct {
	Location struct {
		ID     string `yaml:"id"`
		Flavor string `yaml:"flavor"`
	} `yaml:"location"`
	Observation struct {
		HostilesVisible  bool `yaml:"hostiles_visible"`
		StealthAttempted bool `yaml:"stealth_attempted"`
		StealthFailed    bool `yaml:"stealth_failed"`
		UndetectedAmbush bool `yaml:"undetected_ambush"`
	} `yaml:"observation"`
	Party   []scenarioMember `yaml:"party"`
	Enemies []scenarioEnemy  `yaml:"enemies"`
	History []string         `yaml:"history"`
}

type scenarioMember struct {
	ID               string                 `yaml:"id"`
	Name             string                 `yaml:"name"`
	HP               int                    `yaml:"hp"`
	ArmorClass       int                    `yaml:"armor_class"`
	Abilities        rules.AbilityModifiers `yaml:"abilities"`
	ProficiencyBonus int                    `yaml:"proficiency_bonus"`
	Weapons          []rules.Weapon         `yaml:"weapons"`
	Spells           []rules.Spell          `yaml:"spells"`
	Inventory        []string               `yaml:"inventory"`
	Companion        bool                   `yaml:"companion"`
}

type scenarioEnemy struct {
	// Name must match a bestiary stat block; unknown creatures get defaults.
	Name string `yaml:"name"`
	// Count spawns multiple copies of the same species.
	Count int `yaml:"count"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(s.Party) == 0 {
		return nil, fmt.Errorf("scenario has no party members")
	}
	return &s, nil
}

func (s *scenario) startRequest(surprised trigger.Side) encounter.StartRequest {
	req := encounter.StartRequest{
		SurprisedSide:  surprised,
		LocationID:     s.Location.ID,
		LocationFlavor: s.Location.Flavor,
		History:        s.History,
	}
	for _, m := range s.Party {
		req.Party = append(req.Party, encounter.PartyMember{
			State: rules.CharacterState{
				ID:               m.ID,
				Name:             m.Name,
				CurrentHP:        m.HP,
				MaxHP:            m.HP,
				ArmorClass:       m.ArmorClass,
				Abilities:        m.Abilities,
				ProficiencyBonus: m.ProficiencyBonus,
				Weapons:          m.Weapons,
				Spells:           m.Spells,
				Inventory:        m.Inventory,
			},
			Companion: m.Companion,
		})
	}
	for _, e := range s.Enemies {
		count := e.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			req.Enemies = append(req.Enemies, rules.CharacterState{Name: e.Name})
		}
	}
	return req
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "data/scenarios/goblin-ambush.yaml", "path to scenario YAML")
	persist := flag.Bool("persist", false, "persist the transcript to PostgreSQL")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	scn, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}

	beasts := bestiary.New(logger)
	if cfg.Engine.BestiaryDir != "" {
		if err := beasts.LoadDir(cfg.Engine.BestiaryDir); err != nil {
			logger.Fatal("loading bestiary", zap.Error(err))
		}
	}
	logger.Info("bestiary loaded",
		zap.Int("stat_blocks", beasts.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)

	var gen narrator.Generator = narrator.NewStock()
	var enemyAI tactician.Decider = tactician.NewScripted()
	var companionAI tactician.Decider = tactician.NewScripted()
	if cfg.Anthropic.APIKey != "" {
		gen = narrator.NewAnthropic(cfg.Anthropic, logger)
		enemyAI = tactician.NewEnemyAnthropic(cfg.Anthropic, logger)
		companionAI = tactician.NewCompanionAnthropic(cfg.Anthropic, logger)
		logger.Info("anthropic collaborators enabled", zap.String("model", cfg.Anthropic.Model))
	}

	engine := encounter.NewEngine(roller, gen, enemyAI, companionAI, beasts, cfg.Engine, logger)

	// Evaluate the combat trigger before anything else happens.
	decision := trigger.EvaluateExploration(trigger.ExplorationObservation{
		HostilesVisible:  scn.Observation.HostilesVisible,
		StealthAttempted: scn.Observation.StealthAttempted,
		StealthFailed:    scn.Observation.StealthFailed,
		UndetectedAmbush: scn.Observation.UndetectedAmbush,
	})
	if cfg.Engine.TriggerScript != "" {
		hook, err := trigger.LoadHook(cfg.Engine.TriggerScript, logger)
		if err != nil {
			logger.Fatal("loading trigger script", zap.Error(err))
		}
		decision = hook.Apply("exploration", decision)
	}
	if !decision.Start {
		fmt.Println("No hay combate: nada en este lugar quiere pelear.")
		return
	}
	logger.Info("combat triggered",
		zap.String("reason", decision.Reason),
		zap.String("surprised", string(decision.SurprisedSide)),
	)

	var transcript *postgres.EncounterRepository
	encounterID := ""
	if *persist {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		transcript = postgres.NewEncounterRepository(pool.DB())
		enc, err := transcript.Create(ctx, scn.Location.ID)
		if err != nil {
			logger.Fatal("creating encounter record", zap.Error(err))
		}
		encounterID = enc.ID.String()
		logger.Info("transcript persistence enabled", zap.String("encounter_id", encounterID))
	}

	out := engine.StartEncounter(ctx, scn.startRequest(decision.SurprisedSide))
	printExchange(out)
	record(ctx, transcript, encounterID, out, logger)

	reader := bufio.NewScanner(os.Stdin)
	autoTurns := 0
	for out.InCombat && out.Phase != encounter.PhaseCombatEnd {
		if out.Phase == encounter.PhaseWaitingForAction {
			autoTurns = 0
			fmt.Print("> ")
			if !reader.Scan() {
				break
			}
			line := strings.TrimSpace(reader.Text())
			if line == "" {
				continue
			}
			if line == "salir" || line == "quit" {
				break
			}
			out = engine.HandleExchange(ctx, nextInput(scn, out, &encounter.InterpretedAction{
				Type: "attack",
				Text: line,
			}, false))
		} else {
			autoTurns++
			if autoTurns > cfg.Engine.MaxAutoTurns {
				logger.Warn("automatic turn limit reached, stopping",
					zap.Int("max_auto_turns", cfg.Engine.MaxAutoTurns))
				break
			}
			out = engine.HandleExchange(ctx, nextInput(scn, out, nil, true))
		}
		printExchange(out)
		record(ctx, transcript, encounterID, out, logger)
	}

	if transcript != nil && out.Phase == encounter.PhaseCombatEnd {
		outcome := "victory"
		if anyStanding(out.UpdatedEnemies) {
			outcome = "defeat"
		}
		if err := transcript.Finish(ctx, uuid.MustParse(encounterID), outcome); err != nil {
			logger.Warn("finishing encounter record", zap.Error(err))
		}
	}

	logger.Info("simulation finished", zap.Duration("elapsed", time.Since(start)))
}

// nextInput carries the previous exchange's snapshot forward.
func nextInput(scn *scenario, prev encounter.Output, act *encounter.InterpretedAction, cont bool) encounter.Input {
	return encounter.Input{
		InterpretedAction: act,
		Continue:          cont,
		InCombat:          prev.InCombat,
		LocationID:        scn.Location.ID,
		LocationFlavor:    scn.Location.Flavor,
		History:           scn.History,
		Party:             prev.UpdatedParty,
		Enemies:           prev.UpdatedEnemies,
		InitiativeOrder:   prev.InitiativeOrder,
		TurnIndex:         prev.TurnIndex,
		Phase:             prev.Phase,
	}
}

func printExchange(out encounter.Output) {
	for _, msg := range out.Messages {
		fmt.Println(msg)
	}
	for _, roll := range out.DiceRollLog {
		fmt.Printf("  [%s]\n", roll.String())
	}
}

func record(ctx context.Context, repo *postgres.EncounterRepository, id string, out encounter.Output, logger *zap.Logger) {
	if repo == nil {
		return
	}
	uid := uuid.MustParse(id)
	if err := repo.AppendMessages(ctx, uid, out.Messages); err != nil {
		logger.Warn("persisting messages", zap.Error(err))
	}
	if err := repo.AppendRolls(ctx, uid, out.DiceRollLog); err != nil {
		logger.Warn("persisting rolls", zap.Error(err))
	}
}

func anyStanding(states []rules.CharacterState) bool {
	for _, s := range states {
		if s.CurrentHP > 0 {
			return true
		}
	}
	return false
}
