package ordering

import (
	"regexp"
	"strconv"
	"strings"
)

// Quantity prefixes: "2x burger", "2 x burger", "3× latte".
var qtyRE = regexp.MustCompile(`^\s*([0-9]+)\s*[x×]\s*(.+?)\s*$`)

// ParseQty extracts a leading quantity from a phrase. Quantities are
// clamped to a minimum of 1; without a prefix the whole trimmed phrase
// comes back with qty 1.
func ParseQty(phrase string) (int, string) {
	m := qtyRE.FindStringSubmatch(phrase)
	if m == nil {
		return 1, strings.TrimSpace(phrase)
	}
	qty, err := strconv.Atoi(m[1])
	if err != nil || qty < 1 {
		qty = 1
	}
	return qty, strings.TrimSpace(m[2])
}
