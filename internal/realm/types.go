package realm

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Place is a location in the realm. Description holds the full YAML mapping
// of the place and is what clients receive when they look around.
type Place struct {
	Name        string
	Travel      []string
	Npcs        []string
	Encounters  []string
	Description map[string]any
}

type placeSpec struct {
	Travel     []string `yaml:"travel"`
	Npcs       []string `yaml:"npc"`
	Encounters []string `yaml:"encounter"`
}

func (p *Place) UnmarshalYAML(node *yaml.Node) error {
	var spec placeSpec
	if err := node.Decode(&spec); err != nil {
		return err
	}
	var desc map[string]any
	if err := node.Decode(&desc); err != nil {
		return err
	}

	p.Travel = spec.Travel
	p.Npcs = spec.Npcs
	p.Encounters = spec.Encounters
	p.Description = desc
	return nil
}

// Npc is a non-player character. Each option ("talk", "description",
// "shop", ...) maps to a free-form payload.
type Npc struct {
	Name    string
	Options map[string]any
}

func (n *Npc) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&n.Options)
}

// Option returns the payload of an option and whether the NPC offers it.
func (n *Npc) Option(name string) (any, bool) {
	v, ok := n.Options[name]
	return v, ok
}

// Shop returns the NPC's shop listing as item name to listed price.
func (n *Npc) Shop() (map[string]int, bool) {
	raw, ok := n.Options["shop"].(map[string]any)
	if !ok {
		return nil, false
	}

	listing := make(map[string]int, len(raw))
	for item, price := range raw {
		p, _ := price.(int)
		listing[item] = p
	}
	return listing, true
}

type Item struct {
	Name    string         `yaml:"-"`
	Value   int            `yaml:"value"`
	Details map[string]any `yaml:",inline"`
}

type EnemyType struct {
	Name       string         `yaml:"-"`
	Aggressive bool           `yaml:"aggressive"`
	Stats      map[string]any `yaml:",inline"`
}

func (e *EnemyType) UnmarshalYAML(node *yaml.Node) error {
	type plain EnemyType
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	// Older realm data spells the flag "agressive".
	if legacy, ok := p.Stats["agressive"].(bool); ok {
		p.Aggressive = p.Aggressive || legacy
		delete(p.Stats, "agressive")
	}

	*e = EnemyType(p)
	return nil
}

type Encounter struct {
	Name    string         `yaml:"-"`
	Enemies map[string]int `yaml:"enemies"`
}

// Slot identifies one enemy instance slot defined by an encounter in a place.
type Slot struct {
	Place     string
	Encounter string
	Enemy     string
	Index     int
}

func (s Slot) Key() string {
	return fmt.Sprintf("%s_%s_%s_%d", s.Place, s.Encounter, s.Enemy, s.Index)
}
