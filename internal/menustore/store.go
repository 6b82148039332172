package menustore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"takeaway/internal/models"
	"takeaway/internal/ordering"
)

// Menu file names the store recognizes while scanning.
var menuFileNames = map[string]bool{
	"menu.json": true,
	"menu.yaml": true,
	"menu.yml":  true,
}

// Entry pairs a loaded menu document with its prebuilt lookup index.
// Both are read-only after loading, so one entry serves any number of
// concurrent chat sessions.
type Entry struct {
	Doc   *models.MenuDocument
	Index *ordering.Index
}

// Store loads restaurant menus from a directory tree and caches them
// by the slug declared in meta.slug. Each restaurant lives in its own
// subdirectory with a menu.json or menu.yaml file.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Entry
}

// NewStore creates a menu store over the given directory.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		cache: make(map[string]*Entry),
	}
}

// NormalizeSlug canonicalizes a restaurant slug for lookups.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Lookup resolves a slug to its menu entry, scanning the menu
// directory on a cache miss.
func (s *Store) Lookup(slug string) (*Entry, bool) {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return nil, false
	}

	s.mu.RLock()
	entry, ok := s.cache[slug]
	s.mu.RUnlock()
	if ok {
		return entry, true
	}

	entry = s.scan(slug)
	if entry == nil {
		return nil, false
	}

	s.mu.Lock()
	if cached, ok := s.cache[slug]; ok {
		entry = cached
	} else {
		s.cache[slug] = entry
	}
	s.mu.Unlock()
	return entry, true
}

// Slugs lists every slug found in the menu directory.
func (s *Store) Slugs() []string {
	var out []string
	s.walkMenus(func(doc *models.MenuDocument) bool {
		if slug := NormalizeSlug(doc.Meta.Slug); slug != "" {
			out = append(out, slug)
		}
		return false
	})
	return out
}

// scan walks the menu directory for a document whose meta.slug matches.
func (s *Store) scan(slug string) *Entry {
	var entry *Entry
	s.walkMenus(func(doc *models.MenuDocument) bool {
		if NormalizeSlug(doc.Meta.Slug) != slug {
			return false
		}
		entry = &Entry{Doc: doc, Index: ordering.BuildIndex(doc)}
		return true
	})
	return entry
}

func (s *Store) walkMenus(visit func(doc *models.MenuDocument) (stop bool)) {
	filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !menuFileNames[strings.ToLower(info.Name())] {
			return nil
		}
		doc, err := loadDocument(path)
		if err != nil {
			// a broken menu file hides one restaurant, not all of them
			return nil
		}
		if visit(doc) {
			return filepath.SkipAll
		}
		return nil
	})
}

// loadDocument parses one menu file, JSON or YAML by extension.
func loadDocument(path string) (*models.MenuDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu %s: %w", path, err)
	}

	var doc models.MenuDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse menu %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse menu %s: %w", path, err)
		}
	}
	return &doc, nil
}
