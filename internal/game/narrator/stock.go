package narrator

import (
	"context"
	"fmt"
	"strings"
)

// Stock is a deterministic Generator used as the fallback when no language
// model is configured or a generation call fails. Lines are terse but always
// honor the no-literal-numbers contract.
type Stock struct{}

// NewStock returns the deterministic fallback generator.
func NewStock() *Stock { return &Stock{} }

// Narrate renders a fixed Spanish line for the outcome. It never fails.
func (s *Stock) Narrate(_ context.Context, req Request) (string, error) {
	switch {
	case req.Healed > 0 && req.KnockedOut:
		return fmt.Sprintf("%s atiende a %s, que recobra el sentido.", req.Attacker, req.Target), nil
	case req.Healed > 0:
		return fmt.Sprintf("%s cura las heridas de %s.", req.Attacker, req.Target), nil
	}
	switch req.Outcome {
	case OutcomeCritical:
		if req.Killed {
			return fmt.Sprintf("%s asesta un golpe devastador y %s se desploma sin vida.", req.Attacker, req.Target), nil
		}
		return fmt.Sprintf("%s asesta un golpe devastador a %s.", req.Attacker, req.Target), nil
	case OutcomeFumble:
		return fmt.Sprintf("%s pierde el equilibrio y su ataque no encuentra a %s.", req.Attacker, req.Target), nil
	case OutcomeMiss:
		return fmt.Sprintf("%s ataca, pero %s esquiva el golpe.", req.Attacker, req.Target), nil
	}
	switch {
	case req.Killed:
		return fmt.Sprintf("%s golpea a %s, que cae abatido.", req.Attacker, req.Target), nil
	case req.KnockedOut:
		return fmt.Sprintf("%s golpea a %s, que cae inconsciente.", req.Attacker, req.Target), nil
	default:
		return fmt.Sprintf("%s golpea a %s.", req.Attacker, req.Target), nil
	}
}

// NarrateOpening renders a fixed scene-setting line naming each combatant by
// display name. It never fails.
func (s *Stock) NarrateOpening(_ context.Context, req OpeningRequest) (string, error) {
	var foes, allies []string
	surprised := false
	for _, c := range req.Combatants {
		if c.Enemy {
			foes = append(foes, c.DisplayName)
			continue
		}
		allies = append(allies, c.DisplayName)
		if c.Surprised {
			surprised = true
		}
	}
	line := fmt.Sprintf("¡Comienza el combate! %s se enfrentan a %s.",
		strings.Join(allies, ", "), strings.Join(foes, ", "))
	if surprised {
		line += " El ataque os toma por sorpresa."
	}
	return line, nil
}
