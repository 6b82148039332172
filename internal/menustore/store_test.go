package menustore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const jsonMenu = `{
  "meta": {"slug": "testaway", "currency": "GBP"},
  "categories": [{"id": "drinks", "name": "Drinks"}],
  "items": [
    {"id": "coca-cola", "name": "Coca Cola", "category_id": "drinks", "base_price": 1.5}
  ]
}`

const yamlMenu = `
meta:
  slug: corner-kebab
  currency: GBP
categories:
  - id: kebabs
    name: Kebabs
    items:
      - id: doner
        name: Doner Kebab
        base_price: 6.5
        options:
          size: [Small, "Large (+2.00)"]
`

func writeMenus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for sub, content := range map[string]string{
		filepath.Join("testaway", "menu.json"):     jsonMenu,
		filepath.Join("corner-kebab", "menu.yaml"): yamlMenu,
		filepath.Join("broken", "menu.json"):       "{not valid",
	} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLookupJSON(t *testing.T) {
	store := NewStore(writeMenus(t))

	entry, ok := store.Lookup("testaway")
	assert.True(t, ok)
	assert.Equal(t, "testaway", entry.Doc.Meta.Slug)
	assert.NotNil(t, entry.Index.FindItem("coca cola"))
	assert.Equal(t, "£", entry.Index.CurrencySymbol())
}

func TestLookupYAMLNestedSchema(t *testing.T) {
	store := NewStore(writeMenus(t))

	entry, ok := store.Lookup("corner-kebab")
	assert.True(t, ok)

	item := entry.Index.FindItem("doner kebab")
	if assert.NotNil(t, item) {
		mods := item.EffectiveModifiers()
		assert.Len(t, mods, 1)
		assert.Equal(t, "size", mods[0].Key)
	}
}

func TestLookupNormalizesSlug(t *testing.T) {
	store := NewStore(writeMenus(t))

	entry, ok := store.Lookup("  Testaway ")
	assert.True(t, ok)
	assert.Equal(t, "testaway", entry.Doc.Meta.Slug)
}

func TestLookupCaches(t *testing.T) {
	store := NewStore(writeMenus(t))

	first, ok := store.Lookup("testaway")
	assert.True(t, ok)
	second, ok := store.Lookup("testaway")
	assert.True(t, ok)
	assert.Same(t, first, second)
}

func TestLookupMisses(t *testing.T) {
	store := NewStore(writeMenus(t))

	_, ok := store.Lookup("nowhere")
	assert.False(t, ok)
	_, ok = store.Lookup("")
	assert.False(t, ok)
	_, ok = store.Lookup("broken")
	assert.False(t, ok)
}

func TestSlugs(t *testing.T) {
	store := NewStore(writeMenus(t))

	slugs := store.Slugs()
	assert.ElementsMatch(t, []string{"testaway", "corner-kebab"}, slugs)
}
