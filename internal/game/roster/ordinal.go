package roster

import "regexp"

// spanishOrdinals maps normalized Spanish ordinal words to a 1-based index.
// Apocopated and feminine forms are included up to "décimo".
var spanishOrdinals = map[string]int{
	"primer": 1, "primero": 1, "primera": 1,
	"segundo": 2, "segunda": 2,
	"tercer": 3, "tercero": 3, "tercera": 3,
	"cuarto": 4, "cuarta": 4,
	"quinto": 5, "quinta": 5,
	"sexto": 6, "sexta": 6,
	"septimo": 7, "septima": 7,
	"octavo": 8, "octava": 8,
	"noveno": 9, "novena": 9,
	"decimo": 10, "decima": 10,
}

// ordinalRefPattern anchors on the ordinal word itself so surrounding prose is
// never consumed. The alternation covers accented spellings; lookup normalizes.
var ordinalRefPattern = regexp.MustCompile(`(?i)(?:\b(el|la|al)\s+)?\b(primer[oa]?|segund[oa]|tercer[oa]?|cuart[oa]|quint[oa]|sext[oa]|s[ée]ptim[oa]|octav[oa]|noven[oa]|d[ée]cim[oa])\s+(\p{L}+)`)

var nearestPattern = regexp.MustCompile(`(?i)(?:\b(el|la|al)\s+)?\b(\p{L}+)\s+m[áa]s\s+(?:cercan[oa]|pr[óo]xim[oa])`)

// RewriteOrdinals rewrites Spanish ordinal references in text to disambiguated
// display names: "el segundo goblin" → "Goblin 2". "El goblin más cercano" (or
// "más próximo") resolves to the first creature of that species in current
// ordering. Matching is case- and accent-insensitive; unmatched text passes
// through unchanged. The contracted article "al" keeps its preposition:
// "ataco al segundo goblin" → "ataco a Goblin 2".
//
// Precondition: enemies is the encounter's enemy list in insertion order.
func RewriteOrdinals(text string, enemies []Named) string {
	if len(enemies) == 0 {
		return text
	}
	display := AssignDisplayNames(enemies)

	// bySpecies maps normalized base name → display names in insertion order.
	bySpecies := make(map[string][]string)
	for _, e := range enemies {
		key := Normalize(e.Name)
		bySpecies[key] = append(bySpecies[key], display[e.ID])
	}

	text = nearestPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := nearestPattern.FindStringSubmatch(match)
		names, ok := bySpecies[Normalize(sub[2])]
		if !ok || len(names) == 0 {
			return match
		}
		return withArticle(sub[1], names[0])
	})

	return ordinalRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := ordinalRefPattern.FindStringSubmatch(match)
		idx, ok := spanishOrdinals[Normalize(sub[2])]
		if !ok {
			return match
		}
		names, ok := bySpecies[Normalize(sub[3])]
		if !ok || idx > len(names) {
			return match
		}
		return withArticle(sub[1], names[idx-1])
	})
}

// withArticle re-attaches the preposition hidden inside the contraction "al".
func withArticle(article, display string) string {
	if Normalize(article) == "al" {
		return "a " + display
	}
	return display
}
