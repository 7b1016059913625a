// Package roster maps ambiguous natural-language target references to stable
// per-encounter combatant identity, and generates the disambiguated display
// names ("Goblin 2") used everywhere a human sees a creature.
package roster

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s and strips diacritics, so "Góblin" matches "goblin".
func Normalize(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// AssignDisplayNames produces the disambiguated display name for each enemy,
// keyed by enemy ID. Creatures sharing a normalized base name are numbered
// 1-based in the order they were added to the encounter; a lone goblin is
// still "Goblin 1" for consistency.
//
// Precondition: enemy IDs must be unique.
// Postcondition: Returns one entry per input enemy.
func AssignDisplayNames(names []Named) map[string]string {
	counts := make(map[string]int)
	out := make(map[string]string, len(names))
	for _, n := range names {
		key := Normalize(n.Name)
		counts[key]++
		out[n.ID] = fmt.Sprintf("%s %d", n.Name, counts[key])
	}
	return out
}

// Named is the minimal identity pair the roster operates on.
type Named struct {
	ID   string
	Name string
}

// DisplayFromCanonicalID derives the display name embedded in a canonical
// per-encounter ID of the form "{base}-{n}", e.g. "goblin-2" with base name
// "Goblin" → "Goblin 2". Returns false when id does not match the pattern or
// when its base segment names a different creature than baseName: "lobo-1"
// must never map onto a goblin's display name.
func DisplayFromCanonicalID(id, baseName string) (string, bool) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx == len(id)-1 {
		return "", false
	}
	suffix := id[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if Normalize(id[:idx]) != strings.ReplaceAll(Normalize(baseName), " ", "-") {
		return "", false
	}
	return fmt.Sprintf("%s %s", baseName, suffix), true
}

// ReplaceNamesLongestFirst rewrites raw identifiers and base species names in
// generated prose with display names. Replacements are applied longest key
// first so "Goblin 2" survives a later "Goblin" rewrite.
func ReplaceNamesLongestFirst(text string, replacements map[string]string) string {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	// Insertion sort by descending length; replacement maps are tiny.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, replacements[k])
	}
	return text
}
