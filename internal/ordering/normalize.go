package ordering

import (
	"regexp"
	"sort"
	"strings"
)

// Base synonym map, UK takeaway friendly. Menus can extend it through
// meta.synonyms; menu-supplied entries win on key collision. Identity
// entries ("coca cola" -> "coca cola") pin canonical forms so the
// pipeline stays idempotent.
var defaultSynonyms = map[string]string{
	"chips": "fries",
	"chip":  "fries",

	"coke":      "coca cola",
	"cola":      "coca cola",
	"coca-cola": "coca cola",
	"cocacola":  "coca cola",
	"coca cola": "coca cola",

	"water":           "still water",
	"still water":     "still water",
	"sparkling water": "sparkling water",

	"donner":     "doner",
	"donar":      "doner",
	"pepperonni": "pepperoni",
	"peperoni":   "pepperoni",

	"margarita":  "margherita",
	"margherita": "margherita",
}

var (
	punctRE      = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRE = regexp.MustCompile(`\s+`)

	leadingFillerRE = regexp.MustCompile(`^\s*(?:` +
		`hi|hello|hey|hiya|yo|alright mate|alright|morning|evening|` +
		`mate|boss|bossman|` +
		`pls|plz|please|` +
		`i\s*would\s*like|i\s*d\s*like|id\s*like|can\s*i\s*get|could\s*i\s*get|may\s*i\s*have|` +
		`can\s*i\s*have|could\s*i\s*have|could\s*you|can\s*you|` +
		`get\s*me|give\s*me|i\s*want` +
		`)\b[,\s]+`)

	leadingArticleRE = regexp.MustCompile(`^\s*(?:and\s+)?(?:a|an|the)\b[,\s]+`)
	trailingPoliteRE = regexp.MustCompile(`\s*\b(?:please|pls|plz)\s*$`)
	greetingOnlyRE   = regexp.MustCompile(`^(?:hi|hello|hey|hiya|yo|sup|alright|alright mate|mate|boss|bossman|morning|evening)$`)
)

// patternSub is one deterministic brand/typo rewrite. Each pattern is
// written so re-applying it to its own output is a no-op.
type patternSub struct {
	re   *regexp.Regexp
	repl string
}

var patternSubs = []patternSub{
	{regexp.MustCompile(`\b(?:coca ?cola|cocacola|coke)\b`), "coca cola"},
	{regexp.MustCompile(`\b(?:7 up|seven up)\b`), "7up"},
	{regexp.MustCompile(`\bfanta\b(?: orange)?`), "fanta orange"},
	{regexp.MustCompile(`\bpepsi\b(?: max)?`), "pepsi max"},
	{regexp.MustCompile(`\bfizzy water\b`), "sparkling water"},
	{regexp.MustCompile(`\b(?:donner|donar)\b`), "doner"},
	{regexp.MustCompile(`\b(?:peperoni|pepperonni)\b`), "pepperoni"},
	{regexp.MustCompile(`\bmargarita\b`), "margherita"},
}

// DefaultSynonyms returns a copy of the built-in synonym dictionary.
func DefaultSynonyms() map[string]string {
	out := make(map[string]string, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		out[k] = v
	}
	return out
}

// MergeSynonyms overlays menu-supplied synonyms on the defaults,
// lowercasing both sides.
func MergeSynonyms(custom map[string]string) map[string]string {
	merged := DefaultSynonyms()
	for k, v := range custom {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		merged[k] = strings.ToLower(strings.TrimSpace(v))
	}
	return merged
}

// basicNormalize lowercases, rewrites &/+ to "and", strips everything
// that is not a letter, digit or space, and collapses whitespace.
func basicNormalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "+", " and ")
	s = punctRE.ReplaceAllString(s, " ")
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// stripFiller removes greetings plus ordering chatter from the front
// ("hey can i get a ...") and politeness from the back ("... please").
// People repeat filler, so the prefix strip loops until stable.
func stripFiller(s string) string {
	for {
		next := strings.TrimSpace(leadingFillerRE.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = strings.TrimSpace(leadingArticleRE.ReplaceAllString(s, ""))
	s = strings.TrimSpace(trailingPoliteRE.ReplaceAllString(s, ""))
	return s
}

// applyPatternSubs runs the fixed brand/typo rewrites.
func applyPatternSubs(s string) string {
	for _, p := range patternSubs {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return collapse(s)
}

// applySynonyms replaces dictionary keys token-sequence by token-sequence,
// longest key first, left to right. Replaced spans are emitted verbatim
// and never re-scanned, which keeps keys like "water" from chewing into
// their own replacements. Token matching makes the replacement boundary
// safe for keys like "7up" where \b is unreliable.
func applySynonyms(s string, synonyms map[string]string) string {
	if s == "" || len(synonyms) == 0 {
		return s
	}

	type entry struct {
		tokens []string
		repl   string
	}
	entries := make([]entry, 0, len(synonyms))
	for k, v := range synonyms {
		k = basicNormalize(k)
		if k == "" {
			continue
		}
		entries = append(entries, entry{tokens: strings.Fields(k), repl: basicNormalize(v)})
	}
	// Longest (most tokens, then longest text) first, then lexicographic
	// so replacement order never depends on map iteration.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if len(a.tokens) != len(b.tokens) {
			return len(a.tokens) > len(b.tokens)
		}
		la, lb := len(strings.Join(a.tokens, " ")), len(strings.Join(b.tokens, " "))
		if la != lb {
			return la > lb
		}
		return strings.Join(a.tokens, " ") < strings.Join(b.tokens, " ")
	})

	tokens := strings.Fields(s)
	var out []string
	for i := 0; i < len(tokens); {
		replaced := false
		for _, e := range entries {
			n := len(e.tokens)
			if n == 0 || i+n > len(tokens) {
				continue
			}
			match := true
			for j := 0; j < n; j++ {
				if tokens[i+j] != e.tokens[j] {
					match = false
					break
				}
			}
			if match {
				if e.repl != "" {
					out = append(out, strings.Fields(e.repl)...)
				}
				i += n
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, tokens[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

// Normalize canonicalizes raw user text: basic cleanup, filler and
// article stripping, fixed brand/typo rewrites, then the synonym
// dictionary. The pipeline is idempotent: Normalize(Normalize(x)) ==
// Normalize(x).
func Normalize(raw string, synonyms map[string]string) string {
	s := basicNormalize(raw)
	s = stripFiller(s)
	s = basicNormalize(s)
	s = applyPatternSubs(s)
	s = applySynonyms(s, synonyms)
	return collapse(s)
}

// IsGreetingOnly reports whether the message is nothing but a greeting.
// Checked against the lightly normalized form because Normalize itself
// strips greetings away.
func IsGreetingOnly(raw string) bool {
	return greetingOnlyRE.MatchString(basicNormalize(raw))
}
