package realm

import (
	"fmt"
	"slices"
	"sort"

	"github.com/pixil98/go-errors"
)

// Catalog is the static content of one realm. It is never modified after
// NewCatalog returns and is safe to share between goroutines.
type Catalog struct {
	name       string
	places     map[string]*Place
	npcs       map[string]*Npc
	items      map[string]*Item
	enemies    map[string]*EnemyType
	encounters map[string]*Encounter
}

// NewCatalog assembles a catalog and fills in every entry's Name from its key.
func NewCatalog(
	name string,
	places map[string]*Place,
	npcs map[string]*Npc,
	items map[string]*Item,
	enemies map[string]*EnemyType,
	encounters map[string]*Encounter,
) *Catalog {
	c := &Catalog{
		name:       name,
		places:     orEmpty(places),
		npcs:       orEmpty(npcs),
		items:      orEmpty(items),
		enemies:    orEmpty(enemies),
		encounters: orEmpty(encounters),
	}

	for n, p := range c.places {
		p.Name = n
	}
	for n, v := range c.npcs {
		v.Name = n
	}
	for n, v := range c.items {
		v.Name = n
	}
	for n, v := range c.enemies {
		v.Name = n
	}
	for n, v := range c.encounters {
		v.Name = n
	}

	return c
}

func orEmpty[T any](m map[string]*T) map[string]*T {
	if m == nil {
		return map[string]*T{}
	}
	for k, v := range m {
		if v == nil {
			m[k] = new(T)
		}
	}
	return m
}

// Validate checks that every reference between documents resolves.
func (c *Catalog) Validate() error {
	el := errors.NewErrorList()

	if len(c.places) == 0 {
		el.Add(fmt.Errorf("realm %s has no places", c.name))
	}

	for _, p := range c.Places() {
		for _, dest := range p.Travel {
			if _, ok := c.places[dest]; !ok {
				el.Add(fmt.Errorf("place %s: travel destination %q does not exist", p.Name, dest))
			}
		}
		for _, npc := range p.Npcs {
			if _, ok := c.npcs[npc]; !ok {
				el.Add(fmt.Errorf("place %s: npc %q does not exist", p.Name, npc))
			}
		}
		for _, enc := range p.Encounters {
			if _, ok := c.encounters[enc]; !ok {
				el.Add(fmt.Errorf("place %s: encounter %q does not exist", p.Name, enc))
			}
		}
	}

	for _, name := range sortedKeys(c.encounters) {
		for enemy, count := range c.encounters[name].Enemies {
			if _, ok := c.enemies[enemy]; !ok {
				el.Add(fmt.Errorf("encounter %s: enemy %q does not exist", name, enemy))
			}
			if count < 0 {
				el.Add(fmt.Errorf("encounter %s: enemy %q has negative count", name, enemy))
			}
		}
	}

	for _, name := range sortedKeys(c.npcs) {
		shop, ok := c.npcs[name].Shop()
		if !ok {
			continue
		}
		for item := range shop {
			if _, ok := c.items[item]; !ok {
				el.Add(fmt.Errorf("npc %s: shop item %q does not exist", name, item))
			}
		}
	}

	return el.Err()
}

func (c *Catalog) Name() string {
	return c.name
}

// Place returns the named place, or nil.
func (c *Catalog) Place(name string) *Place {
	return c.places[name]
}

// Places returns every place ordered by name.
func (c *Catalog) Places() []*Place {
	out := make([]*Place, 0, len(c.places))
	for _, name := range sortedKeys(c.places) {
		out = append(out, c.places[name])
	}
	return out
}

// CanTravel reports whether dest is a neighbour of from.
func (c *Catalog) CanTravel(from, dest string) bool {
	p := c.places[from]
	if p == nil {
		return false
	}
	return slices.Contains(p.Travel, dest)
}

// NpcsAt returns the NPCs present at a place that the NPC document defines.
func (c *Catalog) NpcsAt(place string) map[string]*Npc {
	out := map[string]*Npc{}
	p := c.places[place]
	if p == nil {
		return out
	}
	for _, name := range p.Npcs {
		if npc, ok := c.npcs[name]; ok {
			out[name] = npc
		}
	}
	return out
}

func (c *Catalog) Npc(name string) *Npc {
	return c.npcs[name]
}

func (c *Catalog) Item(name string) *Item {
	return c.items[name]
}

func (c *Catalog) EnemyType(name string) *EnemyType {
	return c.enemies[name]
}

func (c *Catalog) Encounter(name string) *Encounter {
	return c.encounters[name]
}

// Slots lists every enemy instance slot across every place, ordered by
// place, encounter, enemy type and index.
func (c *Catalog) Slots() []Slot {
	var slots []Slot
	for _, p := range c.Places() {
		for _, encName := range p.Encounters {
			enc := c.encounters[encName]
			if enc == nil {
				continue
			}
			for _, enemy := range sortedKeys(enc.Enemies) {
				for i := 0; i < enc.Enemies[enemy]; i++ {
					slots = append(slots, Slot{Place: p.Name, Encounter: encName, Enemy: enemy, Index: i})
				}
			}
		}
	}
	return slots
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
