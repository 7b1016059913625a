// Package bestiary loads creature reference stat blocks from YAML data files
// and answers name lookups during encounter setup. A failed or empty lookup
// is never fatal; callers substitute default stats so combat can always start.
package bestiary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/emberfall/skirmish/internal/game/dice"
	"github.com/emberfall/skirmish/internal/game/roster"
	"github.com/emberfall/skirmish/internal/game/rules"
)

// StatBlock is one creature's reference entry.
type StatBlock struct {
	Name             string                 `yaml:"name"`
	HP               int                    `yaml:"hp"`
	ArmorClass       int                    `yaml:"armor_class"`
	Abilities        rules.AbilityModifiers `yaml:"abilities"`
	ProficiencyBonus int                    `yaml:"proficiency_bonus"`
	Actions          []rules.StatAction     `yaml:"actions"`
}

// Validate checks the stat block for structural problems and returns all
// violations found, not just the first.
func (s *StatBlock) Validate() []string {
	var violations []string
	if s.Name == "" {
		violations = append(violations, "name is required")
	}
	if s.HP < 1 {
		violations = append(violations, fmt.Sprintf("hp must be >= 1, got %d", s.HP))
	}
	if s.ArmorClass < 1 {
		violations = append(violations, fmt.Sprintf("armor_class must be >= 1, got %d", s.ArmorClass))
	}
	for _, a := range s.Actions {
		if a.Name == "" {
			violations = append(violations, "action name is required")
		}
		if a.Damage != "" {
			if _, err := dice.Parse(a.Damage); err != nil {
				violations = append(violations, fmt.Sprintf("action %q: invalid damage expression %q", a.Name, a.Damage))
			}
		}
	}
	return violations
}

// bestiaryFile is the top-level YAML document shape.
type bestiaryFile struct {
	Creatures []StatBlock `yaml:"creatures"`
}

// Bestiary indexes stat blocks by accent-insensitive normalized name.
type Bestiary struct {
	blocks map[string]StatBlock
	logger *zap.Logger
}

// New returns an empty bestiary.
func New(logger *zap.Logger) *Bestiary {
	return &Bestiary{blocks: make(map[string]StatBlock), logger: logger}
}

// LoadBytes parses one YAML document and indexes its creatures. Invalid
// blocks are rejected with an aggregated error; the document loads atomically.
func (b *Bestiary) LoadBytes(data []byte, source string) error {
	var file bestiaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse bestiary %s: %w", source, err)
	}
	for i := range file.Creatures {
		if violations := file.Creatures[i].Validate(); len(violations) > 0 {
			return fmt.Errorf("bestiary %s: creature %q: %s",
				source, file.Creatures[i].Name, strings.Join(violations, "; "))
		}
	}
	for _, c := range file.Creatures {
		key := roster.Normalize(c.Name)
		if _, exists := b.blocks[key]; exists {
			b.logger.Warn("duplicate bestiary entry overwritten",
				zap.String("name", c.Name), zap.String("source", source))
		}
		b.blocks[key] = c
	}
	b.logger.Info("bestiary loaded",
		zap.String("source", source),
		zap.Int("creatures", len(file.Creatures)))
	return nil
}

// LoadDir loads every .yaml/.yml file in dir, non-recursively.
func (b *Bestiary) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read bestiary dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read bestiary file %s: %w", path, err)
		}
		if err := b.LoadBytes(data, path); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds a creature's stat block by name, accent- and
// case-insensitively. Returns nil when the creature is unknown.
func (b *Bestiary) Lookup(name string) *StatBlock {
	if block, ok := b.blocks[roster.Normalize(name)]; ok {
		return &block
	}
	return nil
}

// Len reports how many creatures are indexed.
func (b *Bestiary) Len() int { return len(b.blocks) }
