package tactician

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/config"
)

const enemySystemPrompt = `Eres el cerebro táctico de un monstruo en un combate de rol de mesa.
Elige a quién atacar y cómo, de forma despiadada pero coherente con la situación.
Responde SOLO con JSON: {"action": "...", "target": "...", "rolls": ["..."]}.
El campo "target" debe ser el identificador exacto de un combatiente listado.`

const companionSystemPrompt = `Eres el cerebro táctico de un compañero leal del grupo en un combate de rol de mesa.
Protege a tus aliados: ataca a la mayor amenaza o ayuda a quien esté malherido.
Responde SOLO con JSON: {"action": "...", "target": "...", "rolls": ["..."]}.
El campo "target" debe ser el identificador exacto de un combatiente listado.`

// Anthropic plans AI turns with the Anthropic Messages API. A scripted
// decider backs it: any API or parse failure falls through to the
// deterministic plan so a turn is never lost to a collaborator fault.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	system    string
	fallback  *Scripted
	logger    *zap.Logger
}

// NewEnemyAnthropic builds the live decider for hostile combatants.
//
// Precondition: cfg.APIKey is non-empty.
func NewEnemyAnthropic(cfg config.AnthropicConfig, logger *zap.Logger) *Anthropic {
	return newAnthropic(cfg, enemySystemPrompt, logger)
}

// NewCompanionAnthropic builds the live decider for allied AI combatants.
//
// Precondition: cfg.APIKey is non-empty.
func NewCompanionAnthropic(cfg config.AnthropicConfig, logger *zap.Logger) *Anthropic {
	return newAnthropic(cfg, companionSystemPrompt, logger)
}

func newAnthropic(cfg config.AnthropicConfig, system string, logger *zap.Logger) *Anthropic {
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		system:    system,
		fallback:  NewScripted(),
		logger:    logger,
	}
}

// decisionPayload is the JSON shape the model is instructed to produce.
type decisionPayload struct {
	Action string   `json:"action"`
	Target string   `json:"target"`
	Rolls  []string `json:"rolls"`
}

// Decide asks the model for a plan, falling back to the scripted attack on
// any API or parse failure.
func (a *Anthropic) Decide(ctx context.Context, sit Situation) (Decision, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: a.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(situationPrompt(sit))),
		},
	})
	if err != nil {
		a.logger.Warn("tactician call failed, using scripted plan", zap.Error(err))
		return a.fallback.Decide(ctx, sit)
	}

	var raw strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw.WriteString(block.Text)
		}
	}
	payload, err := parseDecision(raw.String())
	if err != nil {
		a.logger.Warn("tactician returned unparseable plan, using scripted plan",
			zap.String("raw", raw.String()), zap.Error(err))
		return a.fallback.Decide(ctx, sit)
	}
	return Decision{
		ActionDescription: payload.Action,
		TargetReference:   payload.Target,
		AdviceRolls:       payload.Rolls,
	}, nil
}

// parseDecision extracts the JSON object from the model's reply, tolerating
// surrounding prose or code fences.
func parseDecision(raw string) (decisionPayload, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return decisionPayload{}, fmt.Errorf("no JSON object in response")
	}
	var p decisionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return decisionPayload{}, fmt.Errorf("decode decision: %w", err)
	}
	return p, nil
}

// situationPrompt flattens a Situation into the model's user message.
func situationPrompt(sit Situation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Es el turno de %s.\n", sit.ActorName)
	sb.WriteString("Enemigos a tu alcance:\n")
	for _, o := range sit.Opponents {
		fmt.Fprintf(&sb, "- %s (id: %s, estado: %s)\n", o.DisplayName, o.ID, o.Condition)
	}
	if len(sit.Allies) > 0 {
		sb.WriteString("Aliados:\n")
		for _, o := range sit.Allies {
			fmt.Fprintf(&sb, "- %s (id: %s, estado: %s)\n", o.DisplayName, o.ID, o.Condition)
		}
	}
	if len(sit.Spells) > 0 {
		fmt.Fprintf(&sb, "Conjuros disponibles: %s\n", strings.Join(sit.Spells, ", "))
	}
	if len(sit.Inventory) > 0 {
		fmt.Fprintf(&sb, "Inventario: %s\n", strings.Join(sit.Inventory, ", "))
	}
	if sit.LocationFlavor != "" {
		fmt.Fprintf(&sb, "Escenario: %s\n", sit.LocationFlavor)
	}
	if len(sit.Transcript) > 0 {
		sb.WriteString("Últimos acontecimientos:\n")
		for _, line := range sit.Transcript {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}
	return sb.String()
}
