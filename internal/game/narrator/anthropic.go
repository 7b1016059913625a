package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/config"
)

const narrationSystemPrompt = `Eres el narrador de un combate de rol de mesa en español.
Escribe una única frase vívida y breve describiendo el resultado que se te da.
Nunca menciones números de tiradas, puntos de golpe ni clase de armadura.
Usa exactamente los nombres de personaje que se te proporcionan.`

// Anthropic generates combat prose with the Anthropic Messages API. A stock
// generator backs it: any API failure falls through to the deterministic line.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	fallback  *Stock
	logger    *zap.Logger
}

// NewAnthropic builds a live narrator from cfg.
//
// Precondition: cfg.APIKey is non-empty.
func NewAnthropic(cfg config.AnthropicConfig, logger *zap.Logger) *Anthropic {
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		fallback:  NewStock(),
		logger:    logger,
	}
}

// Narrate asks the model for a single line describing the resolved action,
// falling back to the stock line on any failure.
func (a *Anthropic) Narrate(ctx context.Context, req Request) (string, error) {
	text, err := a.complete(ctx, narrationPrompt(req))
	if err != nil {
		a.logger.Warn("narration generation failed, using stock line", zap.Error(err))
		return a.fallback.Narrate(ctx, req)
	}
	return text, nil
}

// NarrateOpening asks the model for the start-of-combat scene, falling back
// to the stock opening on any failure.
func (a *Anthropic) NarrateOpening(ctx context.Context, req OpeningRequest) (string, error) {
	text, err := a.complete(ctx, openingPrompt(req))
	if err != nil {
		a.logger.Warn("opening narration failed, using stock line", zap.Error(err))
		return a.fallback.NarrateOpening(ctx, req)
	}
	return text, nil
}

func (a *Anthropic) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: narrationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic message: empty response")
	}
	return text, nil
}

// narrationPrompt flattens a Request into the model's user message. HP values
// are expressed qualitatively so the model cannot echo literal numbers.
func narrationPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Atacante: %s\nObjetivo: %s\nAcción: %s\nResultado: %s\n",
		req.Attacker, req.Target, req.ActionDescription, req.Outcome)
	if req.Damage > 0 {
		fmt.Fprintf(&sb, "El objetivo queda %s.\n", severity(req.AfterHP, req.BeforeHP))
	}
	if req.Healed > 0 {
		sb.WriteString("El objetivo recupera fuerzas.\n")
	}
	if req.Killed {
		sb.WriteString("El objetivo muere.\n")
	}
	if req.KnockedOut {
		sb.WriteString("El objetivo cae inconsciente.\n")
	}
	if req.LocationFlavor != "" {
		fmt.Fprintf(&sb, "Escenario: %s\n", req.LocationFlavor)
	}
	return sb.String()
}

// severity maps an HP change to a qualitative phrase.
func severity(after, before int) string {
	switch {
	case after <= 0:
		return "fuera de combate"
	case after*2 <= before:
		return "malherido"
	default:
		return "herido"
	}
}

// openingPrompt flattens an OpeningRequest into the model's user message.
func openingPrompt(req OpeningRequest) string {
	var sb strings.Builder
	sb.WriteString("Describe el inicio del combate en dos frases como máximo.\nCombatientes en orden de iniciativa:\n")
	for _, c := range req.Combatants {
		side := "aliado"
		if c.Enemy {
			side = "enemigo"
		}
		fmt.Fprintf(&sb, "- %s (%s)", c.DisplayName, side)
		if c.Surprised {
			sb.WriteString(" [sorprendido]")
		}
		sb.WriteString("\n")
	}
	if req.LocationFlavor != "" {
		fmt.Fprintf(&sb, "Escenario: %s\n", req.LocationFlavor)
	}
	return sb.String()
}
