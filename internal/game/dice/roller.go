package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged, attributed dice rolling.
// Every roll is logged at debug level with roller, expression, dice values,
// modifier, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Src returns the underlying randomness source.
func (r *Roller) Src() Source { return r.src }

// Roll parses and evaluates expr on behalf of rollerName.
//
// A lone d20 landing on 20 is classified OutcomeCrit; on 1, OutcomeFumble.
// All other rolls are OutcomeNeutral; callers overwrite the outcome once the
// contested result (hit/miss, initiative) is known.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a fully populated Roll or a parse error.
func (r *Roller) Roll(rollerName, expr, description string) (Roll, error) {
	e, err := Parse(expr)
	if err != nil {
		return Roll{}, err
	}

	rolled := make([]int, e.Count)
	total := e.Modifier
	for i := range rolled {
		rolled[i] = r.src.Intn(e.Sides) + 1
		total += rolled[i]
	}

	result := Roll{
		Roller:      rollerName,
		Expression:  e.Raw,
		Description: description,
		Dice:        rolled,
		Modifier:    e.Modifier,
		Total:       total,
		Outcome:     classifyNatural(e, rolled),
	}

	r.logger.Debug("dice roll",
		zap.String("roller", result.Roller),
		zap.String("expression", result.Expression),
		zap.String("description", result.Description),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// classifyNatural classifies the raw die result before any contested comparison.
func classifyNatural(e Expression, rolled []int) Outcome {
	if e.IsD20() && len(rolled) == 1 {
		switch rolled[0] {
		case 20:
			return OutcomeCrit
		case 1:
			return OutcomeFumble
		}
	}
	return OutcomeNeutral
}
