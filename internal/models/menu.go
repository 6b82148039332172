package models

import (
	"fmt"
	"sort"
	"strings"
)

// MenuMeta carries menu-level settings: the restaurant slug, display
// currency, and any restaurant-specific synonym overrides.
type MenuMeta struct {
	Currency string            `json:"currency" yaml:"currency"`
	Slug     string            `json:"slug" yaml:"slug"`
	Synonyms map[string]string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// MenuDocument represents a restaurant menu. Items may live in the
// flat top-level list (current schema) or nested inside categories
// (legacy schema); both resolve into the same index.
type MenuDocument struct {
	Meta       MenuMeta   `json:"meta" yaml:"meta"`
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	Items      []MenuItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// Category represents a menu section. Legacy menus embed their items
// here instead of the flat list.
type Category struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Items []MenuItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// MenuItem represents a single orderable dish or drink.
type MenuItem struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	CategoryID string     `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	BasePrice  float64    `json:"base_price" yaml:"base_price"`
	Modifiers  []Modifier `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Extras     []Extra    `json:"extras,omitempty" yaml:"extras,omitempty"`

	// Options is the legacy modifier schema: key -> option list, all
	// required, single choice.
	Options map[string][]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Modifier represents a configurable attribute of an item (size, sauce,
// toppings). Option strings may embed a price delta such as
// "Large (+£1.50)".
type Modifier struct {
	Key      string   `json:"key" yaml:"key"`
	Prompt   string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Required *bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Multi    bool     `json:"multi,omitempty" yaml:"multi,omitempty"`
	Options  []string `json:"options" yaml:"options"`
}

// IsRequired reports whether the modifier must be answered before the
// line is complete. Absent means required.
func (m *Modifier) IsRequired() bool {
	return m.Required == nil || *m.Required
}

// PromptText returns the configured prompt or a generated one.
func (m *Modifier) PromptText() string {
	if p := strings.TrimSpace(m.Prompt); p != "" {
		return p
	}
	return fmt.Sprintf("Choose %s:", m.Key)
}

// Extra represents an optional priced add-on, independent of modifiers
// and never mutually exclusive.
type Extra struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// EffectiveModifiers returns the item's modifier list, converting the
// legacy Options map (sorted by key for a stable order) when the new
// schema is absent.
func (it *MenuItem) EffectiveModifiers() []Modifier {
	if len(it.Modifiers) > 0 {
		out := make([]Modifier, 0, len(it.Modifiers))
		for _, m := range it.Modifiers {
			if strings.TrimSpace(m.Key) == "" {
				continue
			}
			out = append(out, m)
		}
		return out
	}

	if len(it.Options) == 0 {
		return nil
	}
	keys := make([]string, 0, len(it.Options))
	for k := range it.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Modifier, 0, len(keys))
	for _, k := range keys {
		out = append(out, Modifier{
			Key:     k,
			Prompt:  fmt.Sprintf("What %s do you want?", k),
			Options: it.Options[k],
		})
	}
	return out
}
