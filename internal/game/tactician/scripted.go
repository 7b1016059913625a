package tactician

import "context"

// Scripted is a deterministic Decider: always attack the first living
// opponent. It backs AI turns when no language model is configured, and is
// the forced-baseline behavior the turn processor falls back to when a live
// decider misbehaves.
type Scripted struct{}

// NewScripted returns the deterministic decider.
func NewScripted() *Scripted { return &Scripted{} }

// Decide targets the first listed opponent with a plain attack. With no
// opponents left it returns an empty decision, which callers treat as "no
// action taken".
func (s *Scripted) Decide(_ context.Context, sit Situation) (Decision, error) {
	if len(sit.Opponents) == 0 {
		return Decision{}, nil
	}
	return Decision{
		ActionDescription: "ataque",
		TargetReference:   sit.Opponents[0].ID,
	}, nil
}
