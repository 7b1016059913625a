package rules

import (
	"fmt"
	"regexp"
	"strconv"
)

var dieExprPattern = regexp.MustCompile(`^(\d*)d(\d+)$`)

// CriticalDamageNotation builds the damage expression for a hit, doubling the
// number of dice on a critical while leaving the flat modifier unchanged
// ("1d8" + 3 critical → "2d8+3", never "2d8+6").
//
// A malformed die expression passes through unchanged with the modifier
// appended, so a bad stat block degrades rather than blocks the turn.
func CriticalDamageNotation(dieExpr string, modifier int, critical bool) string {
	expr := dieExpr
	if critical {
		if m := dieExprPattern.FindStringSubmatch(dieExpr); m != nil {
			count := 1
			if m[1] != "" {
				// Pattern guarantees digits only.
				count, _ = strconv.Atoi(m[1])
			}
			expr = fmt.Sprintf("%dd%s", count*2, m[2])
		}
	}
	// The modifier is always written out, "+0" included, so the produced
	// notation is "{dice}{signed modifier}" for every input.
	return fmt.Sprintf("%s%+d", expr, modifier)
}
