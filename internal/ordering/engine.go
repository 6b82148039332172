package ordering

import (
	"fmt"
	"regexp"
	"strings"

	"takeaway/internal/models"
)

// Fixed command vocabularies, compared against normalized text.
var (
	basketWords = stringSet(
		"basket", "cart", "summary", "my order",
		"whats my order", "what s my order",
	)
	confirmWords = stringSet("confirm", "place order", "checkout")
	menuWords    = stringSet(
		"menu", "show menu", "what do you have", "what have you got",
	)
	resetWords = stringSet("reset", "clear", "start over", "new order")

	noExtrasWords = stringSet(
		"no extras", "no extra", "no", "none", "nah",
		"no thanks", "no thank you", "no thx",
	)

	continueWords = stringSet(
		"a drink", "drink", "something to drink",
		"a side", "side", "sides",
		"dessert", "something sweet",
		"anything else", "something else", "add another", "another", "also",
		"yes", "yeah", "yep", "ok", "okay",
	)

	whatHaveYouRE = regexp.MustCompile(`\bwhat\s+(.+?)\s+(?:do you have|have you got|are there|is there)\b`)
)

// Concept to category-name aliases, used for continuation phrases like
// "and a drink" when the menu names its category "Beverages".
var categoryAliases = map[string][]string{
	"drinks":   {"drinks", "beverages", "soft drinks", "hot drinks"},
	"sides":    {"sides", "extras", "side dishes", "small plates"},
	"desserts": {"desserts", "sweet", "sweets", "pudding"},
}

const maxCategoryItems = 25
const maxAmbiguous = 8

// Handle is the core entry point: one conversational turn over a
// serialized cart and state. It builds the menu index on the fly; use
// HandleIndexed when the index is already built.
func Handle(message, cartJSON string, menu *models.MenuDocument, stateJSON string) (string, string, string) {
	return HandleIndexed(message, cartJSON, BuildIndex(menu), stateJSON)
}

// HandleIndexed runs one turn against a prebuilt index. It is a pure
// transformation: no I/O, no shared state, safe to call concurrently
// with the same index.
func HandleIndexed(message, cartJSON string, idx *Index, stateJSON string) (string, string, string) {
	cart := LoadCart(cartJSON)
	state := LoadState(stateJSON)

	var fragments []string
	msg := message

	// Drain pending phrases with an explicit loop instead of
	// re-entering the handler; depth is bounded by the number of
	// phrases split out of one message.
	for {
		var frag string
		var drained bool
		switch state.Mode {
		case ModeAwaitingModifier:
			frag, drained = stepModifier(msg, &cart, &state, idx)
		case ModeAwaitingExtras:
			frag, drained = stepExtras(msg, &cart, &state, idx)
		default:
			frag, drained = stepNone(msg, &cart, &state, idx)
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
		if !drained {
			break
		}
		next, ok := state.popPending()
		if !ok {
			fragments = append(fragments, nextPrompt(idx))
			break
		}
		msg = next
	}

	return strings.Join(fragments, "\n\n"), DumpCart(cart), DumpState(state)
}

// stepNone handles a turn in the default state: fixed commands first,
// then the add-item flow. The second return value is true when the
// turn ended back in NONE with something added, meaning the pending
// queue may be drained and a closing prompt appended.
func stepNone(msg string, cart *[]CartLine, state *State, idx *Index) (string, bool) {
	msgNorm := Normalize(msg, idx.Synonyms())
	cur := idx.CurrencySymbol()

	switch {
	case resetWords[msgNorm]:
		*cart = []CartLine{}
		*state = State{RestaurantSlug: state.RestaurantSlug}
		return "Cleared. Starting fresh.", false

	case basketWords[msgNorm]:
		summary, _ := BuildSummary(*cart, cur)
		return summary, false

	case confirmWords[msgNorm]:
		if len(*cart) == 0 {
			return "Your basket is empty. Tell me what you want first.", false
		}
		summary, _ := BuildSummary(*cart, cur)
		return summary + "\n\nIf that looks right, hit Confirm in the app.", false
	}

	if target, ok := removalTarget(msgNorm); ok {
		return removeItem(target, cart, state, idx), false
	}

	if menuWords[msgNorm] || strings.Contains(msgNorm, "what do you have") {
		return listCategories(idx), false
	}

	if IsGreetingOnly(msg) {
		if cats := idx.CategoryNames(); len(cats) > 0 {
			return "Hey! What can I get you?\nWe've got: " + strings.Join(cats, ", ") + ".", false
		}
		return "Hey! What can I get you?", false
	}

	// Natural question: "what desserts do you have?"
	if m := whatHaveYouRE.FindStringSubmatch(msgNorm); m != nil {
		if cat := idx.FindCategory(strings.TrimSpace(m[1])); cat != nil {
			return renderCategory(cat, idx), false
		}
		if len(idx.CategoryNames()) > 0 {
			return listCategories(idx), false
		}
	}

	// The user typed a category name on its own.
	if cat := idx.FindCategory(msgNorm); cat != nil {
		return renderCategory(cat, idx), false
	}

	// Add-item flow: split into phrases, resolve each. A phrase whose
	// line needs configuration queues the rest and starts the
	// interview immediately.
	parts := Split(msgNorm, idx.ProtectedPhrases())
	addedAny := false

	for i, part := range parts {
		qty, text := ParseQty(part)
		item := idx.FindItem(text)

		if item == nil {
			if matches := idx.FindItemsByKeyword(text); len(matches) > 1 {
				prompt := renderAmbiguous(matches, cur)
				if addedAny {
					// earlier phrases already changed the cart
					summary, _ := BuildSummary(*cart, cur)
					prompt = "Got it.\n\n" + summary + "\n\n" + prompt
				}
				return prompt, false
			}
			if cat := idx.FindCategory(text); cat != nil && !addedAny {
				return renderCategory(cat, idx), false
			}
			// unresolved phrase in a multi-part message: skip
			continue
		}

		line := NewCartLine(item, qty)
		*cart = append(*cart, line)
		addedAny = true
		lineIndex := len(*cart) - 1

		mods := item.EffectiveModifiers()
		if modIndex, ok := firstRequiredModifier(mods, 0); ok {
			state.PendingParts = append(state.PendingParts, parts[i+1:]...)
			state.Mode = ModeAwaitingModifier
			state.LineIndex = lineIndex
			state.ModIndex = modIndex
			mod := mods[modIndex]
			return fmt.Sprintf("Nice. For your %s, %s\nOptions: %s",
				item.Name, mod.PromptText(), strings.Join(mod.Options, ", ")), false
		}
		if len(item.Extras) > 0 {
			state.PendingParts = append(state.PendingParts, parts[i+1:]...)
			state.Mode = ModeAwaitingExtras
			state.LineIndex = lineIndex
			return extrasPrompt(item, cur), false
		}
	}

	if addedAny {
		summary, _ := BuildSummary(*cart, cur)
		return "Got it.\n\n" + summary, true
	}

	if isContinueOrder(msgNorm) {
		if cat := categoryForConcept(msgNorm, idx); cat != nil {
			return renderCategory(cat, idx), false
		}
		if cats := idx.CategoryNames(); len(cats) > 0 {
			return "No problem. What would you like to add?\nCategories: " + strings.Join(cats, ", "), false
		}
		return "No problem. Tell me what item you want to add.", false
	}

	return dynamicHelp(idx), false
}

// stepModifier handles an answer while a modifier choice is pending.
func stepModifier(msg string, cart *[]CartLine, state *State, idx *Index) (string, bool) {
	item, mods, ok := configTarget(*cart, state, idx)
	if !ok || state.ModIndex < 0 || state.ModIndex >= len(mods) {
		// stale line or modifier cursor: reset and treat the message
		// as a fresh turn
		*state = State{RestaurantSlug: state.RestaurantSlug}
		return stepNone(msg, cart, state, idx)
	}

	line := &(*cart)[state.LineIndex]
	mod := mods[state.ModIndex]
	syn := idx.Synonyms()
	cur := idx.CurrencySymbol()

	if mod.Multi {
		picked := matchMultiChoices(mod.Options, msg, syn)
		if len(picked) == 0 {
			return "I need one or more of these options: " + strings.Join(mod.Options, ", "), false
		}
		delta := 0.0
		for _, p := range picked {
			delta += ExtractPriceDelta(p)
		}
		line.Choices[mod.Key] = Choice{Multi: picked}
		line.ChoicePriceDeltas[mod.Key] = delta
	} else {
		chosen, ok := matchChoice(mod.Options, msg, syn)
		if !ok {
			return "I need one of these options: " + strings.Join(mod.Options, ", "), false
		}
		line.Choices[mod.Key] = Choice{Single: chosen}
		line.ChoicePriceDeltas[mod.Key] = ExtractPriceDelta(chosen)
	}
	line.Recalc()

	// next required modifier, skipping optional ones
	if next, ok := firstRequiredModifier(mods, state.ModIndex+1); ok {
		state.ModIndex = next
		nxt := mods[next]
		return fmt.Sprintf("Got it. %s\nOptions: %s", nxt.PromptText(), strings.Join(nxt.Options, ", ")), false
	}

	if len(item.Extras) > 0 {
		state.Mode = ModeAwaitingExtras
		state.ModIndex = 0
		return extrasPrompt(item, cur), false
	}

	state.clearConfig()
	summary, _ := BuildSummary(*cart, cur)
	return "Nice.\n\n" + summary, true
}

// stepExtras handles an answer while extras collection is open. Extras
// are additive; the mode persists until a "no extras" reply.
func stepExtras(msg string, cart *[]CartLine, state *State, idx *Index) (string, bool) {
	cur := idx.CurrencySymbol()

	if noExtrasWords[Normalize(msg, idx.Synonyms())] {
		state.clearConfig()
		summary, _ := BuildSummary(*cart, cur)
		return "All good. No extras.\n\n" + summary, true
	}

	item, _, ok := configTarget(*cart, state, idx)
	if !ok || len(item.Extras) == 0 {
		*state = State{RestaurantSlug: state.RestaurantSlug}
		return stepNone(msg, cart, state, idx)
	}

	line := &(*cart)[state.LineIndex]
	if extra, ok := matchExtra(item.Extras, msg, idx.Synonyms()); ok {
		line.Extras = append(line.Extras, extra)
		line.Recalc()
		return fmt.Sprintf("Added extra: %s. Add another extra, or say \"no extras\".", extra.Name), false
	}

	names := make([]string, 0, len(item.Extras))
	for _, e := range item.Extras {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return "Extras available: " + strings.Join(names, ", ") + ". Or say \"no extras\".", false
}

// configTarget resolves the line and item the state points at, if
// still valid.
func configTarget(cart []CartLine, state *State, idx *Index) (*models.MenuItem, []models.Modifier, bool) {
	if state.LineIndex < 0 || state.LineIndex >= len(cart) {
		return nil, nil, false
	}
	item := idx.ItemByID(cart[state.LineIndex].ItemID)
	if item == nil {
		return nil, nil, false
	}
	return item, item.EffectiveModifiers(), true
}

func firstRequiredModifier(mods []models.Modifier, from int) (int, bool) {
	for i := from; i < len(mods); i++ {
		if mods[i].IsRequired() {
			return i, true
		}
	}
	return 0, false
}

// removalTarget recognizes "remove X" / "delete X".
func removalTarget(msgNorm string) (string, bool) {
	for _, prefix := range []string{"remove ", "delete "} {
		if strings.HasPrefix(msgNorm, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msgNorm, prefix)), true
		}
	}
	return "", false
}

// removeItem decrements the first matching line's quantity, dropping
// the line at quantity one. No fuzzy hit or no matching line leaves the
// cart untouched.
func removeItem(target string, cart *[]CartLine, state *State, idx *Index) string {
	item := idx.FindItem(target)
	if item == nil {
		example := "the item name"
		if names := idx.ExampleItems(1); len(names) > 0 {
			example = fmt.Sprintf("\"remove %s\"", names[0])
		}
		return fmt.Sprintf("Tell me which item to remove (e.g. %s).", example)
	}

	for i := range *cart {
		if (*cart)[i].ItemID != item.ID {
			continue
		}
		if (*cart)[i].Qty > 1 {
			(*cart)[i].Qty--
			(*cart)[i].Recalc()
		} else {
			*cart = append((*cart)[:i], (*cart)[i+1:]...)
		}
		summary, _ := BuildSummary(*cart, idx.CurrencySymbol())
		return "Removed it.\n\n" + summary + "\n\n" + nextPrompt(idx)
	}

	return "That item isn't in your basket."
}

func listCategories(idx *Index) string {
	cats := idx.CategoryNames()
	if len(cats) == 0 {
		return "Tell me what you'd like (e.g. the name of an item)."
	}
	return "We have: " + strings.Join(cats, ", ") + ".\nWhich category do you want?"
}

func renderCategory(cat *models.Category, idx *Index) string {
	items := idx.ItemsInCategory(cat)
	if len(items) == 0 {
		return fmt.Sprintf("%s has no items yet.", cat.Name)
	}
	cur := idx.CurrencySymbol()

	var b strings.Builder
	fmt.Fprintf(&b, "%s options:\n", cat.Name)
	for i, it := range items {
		if i == maxCategoryItems {
			break
		}
		fmt.Fprintf(&b, "- %s (%s%.2f)\n", it.Name, cur, it.BasePrice)
	}
	b.WriteString("\nTell me which one you want.")
	return b.String()
}

func renderAmbiguous(matches []*models.MenuItem, cur string) string {
	var b strings.Builder
	b.WriteString("Which one did you mean?\n")
	for i, it := range matches {
		if i == maxAmbiguous {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s%.2f)\n", i+1, it.Name, cur, it.BasePrice)
	}
	return strings.TrimRight(b.String(), "\n")
}

func extrasPrompt(item *models.MenuItem, cur string) string {
	var b strings.Builder
	b.WriteString("Any extras?\n")
	for _, e := range item.Extras {
		if e.Name == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s%.2f)\n", e.Name, cur, e.Price)
	}
	b.WriteString("\nSay an extra name, or \"no extras\".")
	return b.String()
}

func nextPrompt(idx *Index) string {
	if cats := idx.CategoryNames(); len(cats) > 0 {
		return fmt.Sprintf("Anything else? You can say a category (e.g. %s), an item name, or \"confirm\".", cats[0])
	}
	return "Anything else? Say an item name, or \"confirm\"."
}

// dynamicHelp builds the fallback reply from live menu content: real
// category names, a real item, a quantity example.
func dynamicHelp(idx *Index) string {
	lines := []string{
		"I didn't catch that. Try:",
		"- \"menu\"",
	}
	cats := idx.CategoryNames()
	for i, c := range cats {
		if i == 3 {
			break
		}
		lines = append(lines, fmt.Sprintf("- \"%s\"", strings.ToLower(c)))
	}
	examples := idx.ExampleItems(2)
	if len(examples) > 0 {
		lines = append(lines, fmt.Sprintf("- \"%s\"", examples[0]))
	}
	if len(examples) > 1 {
		lines = append(lines, fmt.Sprintf("- \"2x %s\"", examples[1]))
	}
	lines = append(lines,
		"- \"basket\"",
		"- \"remove <item>\"",
		"- \"confirm\"",
	)
	return strings.Join(lines, "\n")
}

func isContinueOrder(msgNorm string) bool {
	if msgNorm == "" {
		return false
	}
	if continueWords[msgNorm] {
		return true
	}
	return strings.HasPrefix(msgNorm, "and ") || strings.HasPrefix(msgNorm, "add ")
}

func categoryForConcept(msgNorm string, idx *Index) *models.Category {
	concept := ""
	switch {
	case strings.Contains(msgNorm, "drink") || strings.Contains(msgNorm, "beverage"):
		concept = "drinks"
	case strings.Contains(msgNorm, "side") || strings.Contains(msgNorm, "extra"):
		concept = "sides"
	case strings.Contains(msgNorm, "dessert") || strings.Contains(msgNorm, "sweet") || strings.Contains(msgNorm, "pudding"):
		concept = "desserts"
	default:
		return nil
	}
	for _, alias := range categoryAliases[concept] {
		if cat := idx.FindCategory(alias); cat != nil {
			return cat
		}
	}
	return nil
}

// matchChoice resolves one answer against a modifier's option list:
// exact normalized match, then option-inside-answer containment, then
// fuzzy. Options are matched on their text with the price annotation
// stripped ("Large (+£1.50)" matches "large"); the original display
// string is returned.
func matchChoice(options []string, msg string, synonyms map[string]string) (string, bool) {
	m := Normalize(msg, synonyms)
	if m == "" {
		return "", false
	}

	for _, opt := range options {
		if optionKey(opt, synonyms) == m {
			return opt, true
		}
	}
	for _, opt := range options {
		if o := optionKey(opt, synonyms); o != "" && strings.Contains(m, o) {
			return opt, true
		}
	}

	norm := make([]string, 0, len(options))
	byNorm := make(map[string]string, len(options))
	for _, opt := range options {
		o := optionKey(opt, synonyms)
		if o == "" {
			continue
		}
		norm = append(norm, o)
		if _, dup := byNorm[o]; !dup {
			byNorm[o] = opt
		}
	}
	if best, ok := BestMatch(norm, m, cutoffOption); ok {
		return byNorm[best], true
	}
	return "", false
}

func optionKey(option string, synonyms map[string]string) string {
	return Normalize(StripPriceDelta(option), synonyms)
}

// matchMultiChoices splits the answer and resolves each part, for
// multi-select modifiers ("mushrooms and sweetcorn").
func matchMultiChoices(options []string, msg string, synonyms map[string]string) []string {
	m := Normalize(msg, synonyms)
	if m == "" {
		return nil
	}
	var picked []string
	for _, part := range Split(m, nil) {
		choice, ok := matchChoice(options, part, synonyms)
		if !ok {
			continue
		}
		dup := false
		for _, p := range picked {
			if p == choice {
				dup = true
				break
			}
		}
		if !dup {
			picked = append(picked, choice)
		}
	}
	return picked
}

// matchExtra resolves an extra by name on the target item.
func matchExtra(extras []models.Extra, msg string, synonyms map[string]string) (models.Extra, bool) {
	m := Normalize(msg, synonyms)
	if m == "" {
		return models.Extra{}, false
	}
	names := make([]string, 0, len(extras))
	byNorm := make(map[string]models.Extra, len(extras))
	for _, e := range extras {
		n := Normalize(e.Name, synonyms)
		if n == "" {
			continue
		}
		names = append(names, n)
		if _, dup := byNorm[n]; !dup {
			byNorm[n] = e
		}
	}
	if best, ok := BestMatch(names, m, cutoffExtra); ok {
		return byNorm[best], true
	}
	return models.Extra{}, false
}

func stringSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
