package rewriter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"takeaway/internal/models"
	"takeaway/internal/ordering"
)

const systemPrompt = `You are an intent parser for a takeaway ordering app.
Convert the user's message into ONE JSON command with these fields:
  intent: one of show_menu, show_basket, show_category, add_item, remove_item,
          choose_option, add_extra, no_extras, confirm, unknown
  category, item_name, option_value, extra_name: strings (omit when unused)
  qty: integer >= 1 (omit when unused)
Rules:
- Never invent menu items. If unsure, use intent "unknown".
- If the state says an option or extras answer is awaited, interpret short
  answers like "large" or "no" accordingly.
- Respond with the JSON object only, no prose.`

// Command is the structured intent parsed out of a user message.
type Command struct {
	Intent      string `json:"intent"`
	Category    string `json:"category,omitempty"`
	ItemName    string `json:"item_name,omitempty"`
	Qty         int    `json:"qty,omitempty"`
	OptionValue string `json:"option_value,omitempty"`
	ExtraName   string `json:"extra_name,omitempty"`
}

// menuHints is the trimmed menu context sent to the model. Small on
// purpose; the full document would blow through the prompt budget.
type menuHints struct {
	Categories []string   `json:"categories"`
	Items      []itemHint `json:"items"`
}

type itemHint struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
	Extras  []string `json:"extras,omitempty"`
}

const maxItemHints = 120

// Rewriter turns messy user text into the deterministic phrasing the
// chat engine parses best. It is an optional layer: the engine never
// depends on it, and every failure falls back to the original text.
type Rewriter struct {
	model llms.LLM
}

// New creates a rewriter over a language model. A nil model yields a
// nil rewriter, which callers treat as "disabled".
func New(model llms.LLM) *Rewriter {
	if model == nil {
		return nil
	}
	return &Rewriter{model: model}
}

// Rewrite interprets the message against the menu and conversation
// state and renders the parsed command back into user-like text. The
// returned error signals a fallback to the original message; an empty
// result with a nil error means the command had no useful rendering.
func (r *Rewriter) Rewrite(ctx context.Context, message string, menu *models.MenuDocument, stateJSON string) (string, error) {
	if r == nil || r.model == nil {
		return "", nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"message":    message,
		"state":      ordering.LoadState(stateJSON),
		"menu_hints": buildHints(menu),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode rewrite payload: %w", err)
	}

	resp, err := r.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, string(payload)),
	}, llms.WithJSONMode())
	if err != nil {
		return "", fmt.Errorf("rewrite request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty rewrite response")
	}

	var cmd Command
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Content)), &cmd); err != nil {
		return "", fmt.Errorf("failed to parse rewrite command: %w", err)
	}
	return UserlikeText(cmd), nil
}

// UserlikeText renders a command as the short phrase a customer would
// have typed. Unknown or incomplete commands render empty.
func UserlikeText(cmd Command) string {
	switch strings.TrimSpace(cmd.Intent) {
	case "show_menu":
		return "menu"
	case "show_basket":
		return "basket"
	case "show_category":
		if cat := strings.TrimSpace(cmd.Category); cat != "" {
			return cat
		}
		return "menu"
	case "add_item":
		name := strings.TrimSpace(cmd.ItemName)
		if name == "" {
			return ""
		}
		if cmd.Qty > 1 {
			return fmt.Sprintf("%dx %s", cmd.Qty, name)
		}
		return name
	case "remove_item":
		if name := strings.TrimSpace(cmd.ItemName); name != "" {
			return "remove " + name
		}
		return ""
	case "choose_option":
		return strings.TrimSpace(cmd.OptionValue)
	case "add_extra":
		return strings.TrimSpace(cmd.ExtraName)
	case "no_extras":
		return "no extras"
	case "confirm":
		return "confirm"
	}
	return ""
}

func buildHints(menu *models.MenuDocument) menuHints {
	hints := menuHints{}
	if menu == nil {
		return hints
	}

	add := func(it *models.MenuItem) {
		if len(hints.Items) >= maxItemHints || it.Name == "" {
			return
		}
		hint := itemHint{Name: it.Name}
		for _, m := range it.EffectiveModifiers() {
			hint.Options = append(hint.Options, m.Key)
		}
		for _, e := range it.Extras {
			if e.Name != "" {
				hint.Extras = append(hint.Extras, e.Name)
			}
		}
		hints.Items = append(hints.Items, hint)
	}

	for i := range menu.Categories {
		cat := &menu.Categories[i]
		if cat.Name != "" {
			hints.Categories = append(hints.Categories, cat.Name)
		}
		for j := range cat.Items {
			add(&cat.Items[j])
		}
	}
	for i := range menu.Items {
		add(&menu.Items[i])
	}
	return hints
}

// stripFences unwraps a fenced code block if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
