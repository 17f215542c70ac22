package realm

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// Document names every realm is made of besides its own topology document.
const (
	DocumentNpc       = "npc"
	DocumentItem      = "item"
	DocumentEnemy     = "enemy"
	DocumentEncounter = "encounter"
)

// Source fetches raw realm documents by name.
type Source interface {
	Document(ctx context.Context, name string) ([]byte, error)
}

// FSSource reads "<name>.yaml" documents from a file system.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Document(_ context.Context, name string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, name+".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", name, err)
	}
	return data, nil
}

// Loader produces the catalog for one realm. With caching enabled the first
// successful load is kept for the lifetime of the Loader; without it every
// call fetches the documents again.
type Loader struct {
	source Source
	realm  string
	cache  bool

	mu     sync.Mutex
	loaded *Catalog
}

func NewLoader(source Source, realm string, cache bool) *Loader {
	return &Loader{source: source, realm: realm, cache: cache}
}

func (l *Loader) Catalog(ctx context.Context) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cache && l.loaded != nil {
		return l.loaded, nil
	}

	c, err := Load(ctx, l.source, l.realm)
	if err != nil {
		return nil, err
	}
	if l.cache {
		l.loaded = c
	}
	return c, nil
}

type topology struct {
	Places map[string]*Place `yaml:"places"`
}

// Load fetches and decodes all five documents of a realm and validates the
// resulting catalog.
func Load(ctx context.Context, source Source, realm string) (*Catalog, error) {
	var topo map[string]topology
	if err := decodeDocument(ctx, source, realm, &topo); err != nil {
		return nil, err
	}
	t, ok := topo[realm]
	if !ok {
		return nil, fmt.Errorf("document %s: missing top level key %q", realm, realm)
	}

	var npcs map[string]*Npc
	if err := decodeDocument(ctx, source, DocumentNpc, &npcs); err != nil {
		return nil, err
	}
	var items map[string]*Item
	if err := decodeDocument(ctx, source, DocumentItem, &items); err != nil {
		return nil, err
	}
	var enemies map[string]*EnemyType
	if err := decodeDocument(ctx, source, DocumentEnemy, &enemies); err != nil {
		return nil, err
	}
	var encounters map[string]*Encounter
	if err := decodeDocument(ctx, source, DocumentEncounter, &encounters); err != nil {
		return nil, err
	}

	c := NewCatalog(realm, t.Places, npcs, items, enemies, encounters)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating realm %s: %w", realm, err)
	}

	slog.InfoContext(ctx, "realm loaded",
		"realm", realm,
		"places", len(c.places),
		"npcs", len(c.npcs),
		"items", len(c.items),
		"enemies", len(c.enemies),
		"encounters", len(c.encounters))

	return c, nil
}

func decodeDocument(ctx context.Context, source Source, name string, out any) error {
	data, err := source.Document(ctx, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding document %s: %w", name, err)
	}
	return nil
}
