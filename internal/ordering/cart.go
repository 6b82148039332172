package ordering

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"takeaway/internal/models"
)

// Modifier option price deltas like "Large (+£2.00)" or "(+2.00)".
var priceDeltaRE = regexp.MustCompile(`\(\s*\+\s*(?:£\s*)?([0-9]+(?:\.[0-9]+)?)\s*\)`)

// Choice holds one modifier answer: a single option for single-select
// modifiers, a list for multi-select ones. It marshals as a bare string
// or a string array to keep the cart JSON shape stable for callers.
type Choice struct {
	Single string
	Multi  []string
}

// MarshalJSON emits a string for single choices and an array otherwise.
func (c Choice) MarshalJSON() ([]byte, error) {
	if c.Multi != nil {
		return json.Marshal(c.Multi)
	}
	return json.Marshal(c.Single)
}

// UnmarshalJSON accepts either shape; anything else becomes an empty
// choice rather than an error.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Single, c.Multi = s, nil
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		c.Single, c.Multi = "", many
		return nil
	}
	c.Single, c.Multi = "", nil
	return nil
}

// Values lists the selected option strings.
func (c Choice) Values() []string {
	if c.Multi != nil {
		return c.Multi
	}
	if c.Single == "" {
		return nil
	}
	return []string{c.Single}
}

func (c Choice) display() string {
	return strings.Join(c.Values(), ", ")
}

// CartLine represents one basket entry. LineTotal is recomputed after
// every mutation and always equals
// round(qty * (base_price + sum of choice deltas + sum of extras), 2).
type CartLine struct {
	ItemID            string             `json:"item_id"`
	Name              string             `json:"name"`
	Qty               int                `json:"qty"`
	BasePrice         float64            `json:"base_price"`
	Choices           map[string]Choice  `json:"choices"`
	ChoicePriceDeltas map[string]float64 `json:"choice_price_deltas"`
	Extras            []models.Extra     `json:"extras"`
	Notes             string             `json:"notes"`
	LineTotal         float64            `json:"line_total"`
}

// NewCartLine creates a priced line for a menu item with no choices or
// extras yet.
func NewCartLine(item *models.MenuItem, qty int) CartLine {
	line := CartLine{
		ItemID:            item.ID,
		Name:              item.Name,
		Qty:               qty,
		BasePrice:         item.BasePrice,
		Choices:           map[string]Choice{},
		ChoicePriceDeltas: map[string]float64{},
		Extras:            []models.Extra{},
	}
	line.Recalc()
	return line
}

// Recalc recomputes the line total from quantity, base price, modifier
// deltas and extras.
func (l *CartLine) Recalc() {
	qty := l.Qty
	if qty < 1 {
		qty = 1
	}
	unit := l.BasePrice
	for _, d := range l.ChoicePriceDeltas {
		unit += d
	}
	for _, e := range l.Extras {
		unit += e.Price
	}
	l.LineTotal = round2(float64(qty) * unit)
}

// ExtractPriceDelta parses the price delta annotation out of an option's
// display text. Missing annotation means zero.
func ExtractPriceDelta(option string) float64 {
	m := priceDeltaRE.FindStringSubmatch(option)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// StripPriceDelta removes the price annotation from an option's
// display text, leaving the part users actually type ("Large (+£1.50)"
// -> "Large").
func StripPriceDelta(option string) string {
	return strings.TrimSpace(priceDeltaRE.ReplaceAllString(option, ""))
}

// round2 rounds half up to two decimals. The epsilon counters binary
// representation (5.005 is stored just below the true value and must
// still round to 5.01).
func round2(v float64) float64 {
	return math.Round(v*100+1e-6) / 100
}

// CartTotal sums rounded line totals and rounds the sum again; both
// rounding stages are part of the pricing contract.
func CartTotal(cart []CartLine) float64 {
	total := 0.0
	for _, l := range cart {
		total += l.LineTotal
	}
	return round2(total)
}

// LoadCart parses a serialized cart. Malformed input is an empty cart,
// never an error.
func LoadCart(itemsJSON string) []CartLine {
	if strings.TrimSpace(itemsJSON) == "" {
		return []CartLine{}
	}
	var cart []CartLine
	if err := json.Unmarshal([]byte(itemsJSON), &cart); err != nil || cart == nil {
		return []CartLine{}
	}
	for i := range cart {
		if cart[i].Choices == nil {
			cart[i].Choices = map[string]Choice{}
		}
		if cart[i].ChoicePriceDeltas == nil {
			cart[i].ChoicePriceDeltas = map[string]float64{}
		}
		if cart[i].Extras == nil {
			cart[i].Extras = []models.Extra{}
		}
	}
	return cart
}

// DumpCart serializes the cart back to JSON.
func DumpCart(cart []CartLine) string {
	if cart == nil {
		cart = []CartLine{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// BuildSummary renders the basket for display and returns the total.
func BuildSummary(cart []CartLine, currencySymbol string) (string, float64) {
	if len(cart) == 0 {
		return "Your basket is empty.", 0
	}

	var b strings.Builder
	b.WriteString("Order summary:\n")
	for i, l := range cart {
		qty := l.Qty
		if qty < 1 {
			qty = 1
		}

		var bits []string
		if len(l.Choices) > 0 {
			var pairs []string
			for _, key := range sortedChoiceKeys(l.Choices) {
				if d := l.Choices[key].display(); d != "" {
					pairs = append(pairs, fmt.Sprintf("%s: %s", key, d))
				}
			}
			if len(pairs) > 0 {
				bits = append(bits, strings.Join(pairs, " | "))
			}
		}
		if len(l.Extras) > 0 {
			names := make([]string, 0, len(l.Extras))
			for _, e := range l.Extras {
				if e.Name != "" {
					names = append(names, e.Name)
				}
			}
			bits = append(bits, "extras: "+strings.Join(names, ", "))
		}
		if l.Notes != "" {
			bits = append(bits, "note: "+l.Notes)
		}

		detail := ""
		if len(bits) > 0 {
			detail = " (" + strings.Join(bits, "; ") + ")"
		}
		fmt.Fprintf(&b, "%d. x%d %s%s = %s%.2f\n", i+1, qty, l.Name, detail, currencySymbol, l.LineTotal)
	}

	total := CartTotal(cart)
	fmt.Fprintf(&b, "\nTotal: %s%.2f", currencySymbol, total)
	return b.String(), total
}

func sortedChoiceKeys(m map[string]Choice) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
