package ordering

import (
	"sort"
	"strings"

	"takeaway/internal/models"
)

// Lookup cutoffs. Raw names are matched strictly; the normalized and
// synonym-expanded views tolerate more noise.
const (
	cutoffRawName  = 0.80
	cutoffNormName = 0.62
	cutoffCategory = 0.70
	cutoffOption   = 0.65
	cutoffExtra    = 0.66
)

// Index is the derived, read-only lookup structure built from a
// MenuDocument. It is returned as a separate value and never written
// after construction, so one index can serve any number of concurrent
// sessions.
type Index struct {
	synonyms map[string]string
	currency string

	itemsByID       map[string]*models.MenuItem
	itemsByNameRaw  map[string]*models.MenuItem
	itemsByNameNorm map[string]*models.MenuItem
	itemsByNameSyn  map[string]*models.MenuItem
	itemOrder       []*models.MenuItem

	catsByID       map[string]*models.Category
	catsByNameRaw  map[string]*models.Category
	catsByNameNorm map[string]*models.Category
	catsByNameSyn  map[string]*models.Category
	categoryNames  []string

	itemsByCategory map[string][]*models.MenuItem

	protected []string
}

// BuildIndex builds the lookup tables for a menu document, merging flat
// items with items nested inside categories. The input document is not
// touched.
func BuildIndex(menu *models.MenuDocument) *Index {
	idx := &Index{
		synonyms:        MergeSynonyms(menu.Meta.Synonyms),
		currency:        currencySymbol(menu.Meta.Currency),
		itemsByID:       make(map[string]*models.MenuItem),
		itemsByNameRaw:  make(map[string]*models.MenuItem),
		itemsByNameNorm: make(map[string]*models.MenuItem),
		itemsByNameSyn:  make(map[string]*models.MenuItem),
		catsByID:        make(map[string]*models.Category),
		catsByNameRaw:   make(map[string]*models.Category),
		catsByNameNorm:  make(map[string]*models.Category),
		catsByNameSyn:   make(map[string]*models.Category),
		itemsByCategory: make(map[string][]*models.MenuItem),
	}

	for i := range menu.Categories {
		cat := &menu.Categories[i]
		if id := strings.TrimSpace(cat.ID); id != "" {
			idx.catsByID[id] = cat
		}
		if name := strings.TrimSpace(cat.Name); name != "" {
			idx.catsByNameRaw[strings.ToLower(name)] = cat
			idx.catsByNameNorm[Normalize(name, nil)] = cat
			idx.catsByNameSyn[Normalize(name, idx.synonyms)] = cat
			idx.categoryNames = append(idx.categoryNames, name)
		}
		// legacy nested items; the document is never written, so
		// ItemsInCategory falls back to cat.Items instead of patching
		// category_id here
		for j := range cat.Items {
			idx.addItem(&cat.Items[j])
		}
	}

	for i := range menu.Items {
		idx.addItem(&menu.Items[i])
	}

	for _, it := range idx.itemOrder {
		if cid := strings.TrimSpace(it.CategoryID); cid != "" {
			idx.itemsByCategory[cid] = append(idx.itemsByCategory[cid], it)
		}
	}

	// Protected phrases guard both normalization views: the engine
	// splits the synonym-normalized message, so a name whose word is
	// rewritten by a synonym ("chips" to "fries") must keep its
	// rewritten form protected too.
	addProtected := func(phrase string) {
		if strings.Contains(phrase, " and ") {
			idx.protected = append(idx.protected, phrase)
		}
	}
	for _, combo := range commonAndCombos {
		addProtected(combo)
		addProtected(Normalize(combo, idx.synonyms))
	}
	for name := range idx.itemsByNameRaw {
		if containsAndJoiner(name) {
			addProtected(Normalize(name, nil))
			addProtected(Normalize(name, idx.synonyms))
		}
	}
	for name := range idx.catsByNameRaw {
		if containsAndJoiner(name) {
			addProtected(Normalize(name, nil))
			addProtected(Normalize(name, idx.synonyms))
		}
	}
	idx.protected = dedupeStrings(idx.protected)
	sort.Strings(idx.protected)

	return idx
}

func (idx *Index) addItem(it *models.MenuItem) {
	if id := strings.TrimSpace(it.ID); id != "" {
		if _, seen := idx.itemsByID[id]; seen {
			return
		}
		idx.itemsByID[id] = it
	}
	if name := strings.TrimSpace(it.Name); name != "" {
		idx.itemsByNameRaw[strings.ToLower(name)] = it
		idx.itemsByNameNorm[Normalize(name, nil)] = it
		idx.itemsByNameSyn[Normalize(name, idx.synonyms)] = it
	}
	idx.itemOrder = append(idx.itemOrder, it)
}

func containsAndJoiner(name string) bool {
	return strings.Contains(name, " and ") || strings.Contains(name, " & ")
}

func currencySymbol(code string) string {
	if strings.EqualFold(strings.TrimSpace(code), "GBP") || strings.TrimSpace(code) == "" {
		return "£"
	}
	return ""
}

// Synonyms returns the merged synonym dictionary (defaults plus
// meta.synonyms).
func (idx *Index) Synonyms() map[string]string { return idx.synonyms }

// CurrencySymbol returns the display symbol for the menu's currency.
func (idx *Index) CurrencySymbol() string { return idx.currency }

// CategoryNames returns category display names in menu order.
func (idx *Index) CategoryNames() []string { return idx.categoryNames }

// ProtectedPhrases returns normalized phrases whose internal "and" must
// survive splitting.
func (idx *Index) ProtectedPhrases() []string { return idx.protected }

// ItemByID looks an item up by its identifier.
func (idx *Index) ItemByID(id string) *models.MenuItem {
	return idx.itemsByID[id]
}

// ExampleItems returns up to n item names in menu order, for generated
// help text.
func (idx *Index) ExampleItems(n int) []string {
	var out []string
	for _, it := range idx.itemOrder {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		out = append(out, name)
		if len(out) == n {
			break
		}
	}
	return out
}

// FindItem resolves free text to a single menu item, trying the raw
// name view strictly, then the normalized and synonym-expanded views
// with looser cutoffs. A substring hit that touches two or more
// distinct items is ambiguous and resolves to nothing; the caller
// surfaces the candidates via FindItemsByKeyword instead.
func (idx *Index) FindItem(text string) *models.MenuItem {
	lookups := []struct {
		table  map[string]*models.MenuItem
		query  string
		cutoff float64
	}{
		{idx.itemsByNameRaw, strings.ToLower(strings.TrimSpace(text)), cutoffRawName},
		{idx.itemsByNameNorm, Normalize(text, nil), cutoffNormName},
		{idx.itemsByNameSyn, Normalize(text, idx.synonyms), cutoffNormName},
	}
	for _, l := range lookups {
		if l.query == "" {
			continue
		}
		keys := sortKeysStable(mapKeys(l.table))

		if it, ok := l.table[l.query]; ok {
			return it
		}

		var first *models.MenuItem
		distinct := 0
		for _, k := range keys {
			if !strings.Contains(k, l.query) {
				continue
			}
			if it := l.table[k]; it != first {
				if first == nil {
					first = it
				}
				distinct++
			}
			if distinct > 1 {
				return nil
			}
		}
		if distinct == 1 {
			return first
		}

		if key, ok := bestByRatio(keys, l.query, l.cutoff); ok {
			return l.table[key]
		}
	}
	return nil
}

// FindItemsByKeyword returns every item whose name (in any view)
// contains the query, in a deterministic order. Used to build
// disambiguation lists.
func (idx *Index) FindItemsByKeyword(text string) []*models.MenuItem {
	queries := dedupeStrings([]string{
		strings.ToLower(strings.TrimSpace(text)),
		Normalize(text, nil),
		Normalize(text, idx.synonyms),
	})
	tables := []map[string]*models.MenuItem{
		idx.itemsByNameRaw,
		idx.itemsByNameNorm,
		idx.itemsByNameSyn,
	}

	var out []*models.MenuItem
	seen := make(map[*models.MenuItem]bool)
	for _, q := range queries {
		if q == "" {
			continue
		}
		for _, table := range tables {
			for _, name := range sortedKeys(table) {
				it := table[name]
				if strings.Contains(name, q) && !seen[it] {
					seen[it] = true
					out = append(out, it)
				}
			}
		}
	}
	return out
}

// FindCategory resolves free text to a category across the three name
// views.
func (idx *Index) FindCategory(text string) *models.Category {
	lookups := []struct {
		table map[string]*models.Category
		query string
	}{
		{idx.catsByNameRaw, strings.ToLower(strings.TrimSpace(text))},
		{idx.catsByNameNorm, Normalize(text, nil)},
		{idx.catsByNameSyn, Normalize(text, idx.synonyms)},
	}
	for _, l := range lookups {
		if l.query == "" {
			continue
		}
		if key, ok := BestMatch(catKeys(l.table), l.query, cutoffCategory); ok {
			return l.table[key]
		}
	}
	if c := idx.catsByID[strings.TrimSpace(text)]; c != nil {
		return c
	}
	return nil
}

// ItemsInCategory returns the items belonging to a category, falling
// back to legacy nested items when nothing is linked by category_id.
func (idx *Index) ItemsInCategory(cat *models.Category) []*models.MenuItem {
	if cat == nil {
		return nil
	}
	if items := idx.itemsByCategory[cat.ID]; len(items) > 0 {
		return items
	}
	var out []*models.MenuItem
	for i := range cat.Items {
		out = append(out, &cat.Items[i])
	}
	return out
}

func mapKeys(m map[string]*models.MenuItem) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func catKeys(m map[string]*models.Category) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedKeys(m map[string]*models.MenuItem) []string {
	out := mapKeys(m)
	sort.Strings(out)
	return out
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
