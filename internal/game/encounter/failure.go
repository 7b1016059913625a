package encounter

// FailureKind classifies why a turn could not be processed.
type FailureKind int

const (
	// FailInternal covers unexpected errors; the turn is consumed so the
	// encounter always makes forward progress.
	FailInternal FailureKind = iota
	FailInvalidAction
	FailTargetRequired
	FailTargetAmbiguous
	FailTargetNotFound
	FailTargetDead
	FailWeaponNotOwned
	FailSpellUnknown
	FailItemNotOwned
)

// TurnFailure is a structured turn-processing failure. Its message is shown
// to the player in the normal narration channel; there is no separate error
// surface.
type TurnFailure struct {
	Kind    FailureKind
	Message string
	// Candidates lists display names when the failure is an ambiguity.
	Candidates []string
}

// Error implements the error interface.
func (f *TurnFailure) Error() string { return f.Message }

// Retryable reports whether the turn was left unconsumed: the caller should
// re-prompt the player in the same phase. Only internal failures consume the
// turn.
func (f *TurnFailure) Retryable() bool { return f.Kind != FailInternal }

func failf(kind FailureKind, msg string) *TurnFailure {
	return &TurnFailure{Kind: kind, Message: msg}
}
