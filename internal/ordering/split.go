package ordering

import (
	"regexp"
	"strings"
)

// Sentinel that survives the split regex: \band\b cannot fire between
// underscores.
const andSentinel = "__and__"

// Separators for multi-intent messages: "latte and brownie",
// "wrap, fries & coke". Normalized text has already folded & and +
// into "and", but the raw forms stay in the pattern so Split also
// works on lightly processed input.
var splitRE = regexp.MustCompile(`\s*(?:,|&|\+|\band\b)\s*`)

// Combos that read as one phrase even though they contain "and".
// Menu item and category names with "and" in them are added on top of
// these at index build time.
var commonAndCombos = []string{
	"salt and pepper",
	"sweet and sour",
	"hot and sour",
}

// protectAndPhrases rewrites "and" inside protected phrases with a
// sentinel so the splitter does not break them apart.
func protectAndPhrases(s string, phrases []string) string {
	for _, ph := range phrases {
		ph = strings.TrimSpace(strings.ToLower(ph))
		if !strings.Contains(ph, " and ") {
			continue
		}
		guarded := strings.ReplaceAll(ph, " and ", " "+andSentinel+" ")
		s = strings.ReplaceAll(s, ph, guarded)
	}
	return s
}

func restoreAnd(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, andSentinel, "and"))
}

// Split breaks one normalized message into atomic order phrases.
// Protected phrases keep their internal "and"; the result is never
// empty.
func Split(norm string, protected []string) []string {
	s := protectAndPhrases(norm, protected)

	var parts []string
	for _, p := range splitRE.Split(s, -1) {
		p = restoreAnd(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{restoreAnd(norm)}
	}
	return parts
}
