package ordering

import (
	"sort"
	"strings"
)

// BestMatch finds the candidate key closest to the query. Match order:
// exact equality, then substring containment (query inside a key), then
// edit similarity against every key. Substring ties break to the
// shortest key and then lexicographically, so the answer never depends
// on map iteration order. Returns false when nothing clears the cutoff.
func BestMatch(keys []string, query string, cutoff float64) (string, bool) {
	q := strings.TrimSpace(strings.ToLower(query))
	if q == "" || len(keys) == 0 {
		return "", false
	}

	sorted := sortKeysStable(keys)

	for _, k := range sorted {
		if k == q {
			return k, true
		}
	}
	for _, k := range sorted {
		if strings.Contains(k, q) {
			return k, true
		}
	}
	return bestByRatio(sorted, q, cutoff)
}

// bestByRatio returns the highest-similarity key at or above the
// cutoff. Keys must already be in a deterministic order; the first
// highest scorer wins.
func bestByRatio(keys []string, q string, cutoff float64) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, k := range keys {
		if score := Similarity(q, k); score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore >= cutoff {
		return best, true
	}
	return "", false
}

// sortKeysStable orders keys shortest first, then lexicographically.
func sortKeysStable(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) < len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// Similarity scores two strings in [0, 1] as twice the number of
// matched characters over the combined length, with matches found by
// recursively taking the longest common substring (the classic
// sequence-matcher ratio).
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	m := matchedRunes(ra, rb)
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

func matchedRunes(a, b []rune) int {
	ai, bi, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchedRunes(a[:ai], b[:bi]) +
		matchedRunes(a[ai+size:], b[bi+size:])
}

// longestCommonRun returns the start offsets and length of the longest
// common substring of a and b. Earliest start in a wins ties.
func longestCommonRun(a, b []rune) (int, int, int) {
	bestA, bestB, bestLen := 0, 0, 0
	// lengths[j] is the length of the common run ending at a[i-1], b[j-1]
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestA = i - curr[j]
					bestB = j - curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return bestA, bestB, bestLen
}
