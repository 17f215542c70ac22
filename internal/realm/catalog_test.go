package realm_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/pixil98/go-testutil"
	"github.com/theUltimateZoltan/Realms/internal/realm"
	"github.com/theUltimateZoltan/Realms/internal/realm/realmtest"
)

func TestLoad(t *testing.T) {
	c := realmtest.Catalog(t)

	noobville := c.Place("noobville")
	if noobville == nil {
		t.Fatal("expected noobville to be loaded")
	}
	testutil.AssertEqual(t, "name", noobville.Name, "noobville")
	testutil.AssertEqual(t, "travel count", len(noobville.Travel), 2)
	testutil.AssertEqual(t, "title", noobville.Description["title"], any("Noobville"))
	testutil.AssertEqual(t, "places", len(c.Places()), 4)

	testutil.AssertEqual(t, "potion value", c.Item("potion").Value, 10)
	testutil.AssertEqual(t, "sword damage", c.Item("sword").Details["damage"], any(3))

	testutil.AssertEqual(t, "wolf aggressive", c.EnemyType("wolf").Aggressive, true)
	testutil.AssertEqual(t, "rabbit aggressive", c.EnemyType("rabbit").Aggressive, false)
	testutil.AssertEqual(t, "legacy bat flag", c.EnemyType("bat").Aggressive, true)
	testutil.AssertEqual(t, "wolfpack wolves", c.Encounter("wolfpack").Enemies["wolf"], 2)
}

func TestCatalog_CanTravel(t *testing.T) {
	c := realmtest.Catalog(t)

	tests := map[string]struct {
		from, dest string
		exp        bool
	}{
		"neighbour":          {from: "noobville", dest: "forest", exp: true},
		"not a neighbour":    {from: "noobville", dest: "cave", exp: false},
		"unknown origin":     {from: "atlantis", dest: "forest", exp: false},
		"unknown target":     {from: "noobville", dest: "atlantis", exp: false},
		"empty destination":  {from: "noobville", dest: "", exp: false},
		"same place":         {from: "forest", dest: "forest", exp: false},
		"one way is allowed": {from: "cave", dest: "forest", exp: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "can travel", c.CanTravel(tt.from, tt.dest), tt.exp)
		})
	}
}

func TestCatalog_NpcsAt(t *testing.T) {
	c := realmtest.Catalog(t)

	tests := map[string]struct {
		place string
		exp   []string
	}{
		"village":  {place: "noobville", exp: []string{"merchant", "elder", "ghost"}},
		"market":   {place: "market", exp: []string{"merchant"}},
		"no npcs":  {place: "forest", exp: nil},
		"no place": {place: "atlantis", exp: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := c.NpcsAt(tt.place)
			testutil.AssertEqual(t, "npc count", len(got), len(tt.exp))
			for _, n := range tt.exp {
				if _, ok := got[n]; !ok {
					t.Errorf("expected %q at %s", n, tt.place)
				}
			}
		})
	}
}

func TestNpc_Shop(t *testing.T) {
	c := realmtest.Catalog(t)

	shop, ok := c.Npc("merchant").Shop()
	testutil.AssertEqual(t, "has shop", ok, true)
	testutil.AssertEqual(t, "potion listed", shop["potion"], 10)
	testutil.AssertEqual(t, "sword listed", shop["sword"], 100)

	_, ok = c.Npc("elder").Shop()
	testutil.AssertEqual(t, "elder has shop", ok, false)
}

func TestCatalog_Slots(t *testing.T) {
	c := realmtest.Catalog(t)

	slots := c.Slots()
	// cave: 3 bats, forest: 1 rabbit + 2 wolves
	testutil.AssertEqual(t, "slot count", len(slots), 6)
	testutil.AssertEqual(t, "first slot", slots[0].Key(), "cave_bats_bat_0")
	testutil.AssertEqual(t, "rabbit slot", slots[3].Key(), "forest_wolfpack_rabbit_0")
	testutil.AssertEqual(t, "last slot", slots[5].Key(), "forest_wolfpack_wolf_1")
}

func TestCatalog_Validate(t *testing.T) {
	tests := map[string]struct {
		catalog *realm.Catalog
		expErr  string
	}{
		"no places": {
			catalog: realm.NewCatalog("empty", nil, nil, nil, nil, nil),
			expErr:  "realm empty has no places",
		},
		"bad travel": {
			catalog: realm.NewCatalog("r", map[string]*realm.Place{
				"a": {Travel: []string{"b"}},
			}, nil, nil, nil, nil),
			expErr: `place a: travel destination "b" does not exist`,
		},
		"bad npc": {
			catalog: realm.NewCatalog("r", map[string]*realm.Place{
				"a": {Npcs: []string{"bob"}},
			}, nil, nil, nil, nil),
			expErr: `place a: npc "bob" does not exist`,
		},
		"bad enemy": {
			catalog: realm.NewCatalog("r", map[string]*realm.Place{
				"a": {Encounters: []string{"e"}},
			}, nil, nil, nil, map[string]*realm.Encounter{
				"e": {Enemies: map[string]int{"dragon": 1}},
			}),
			expErr: `encounter e: enemy "dragon" does not exist`,
		},
		"bad shop item": {
			catalog: realm.NewCatalog("r", map[string]*realm.Place{"a": {}},
				map[string]*realm.Npc{
					"m": {Options: map[string]any{"shop": map[string]any{"ring": 5}}},
				}, nil, nil, nil),
			expErr: `npc m: shop item "ring" does not exist`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertErrorContains(t, tt.catalog.Validate(), tt.expErr)
		})
	}
}

type countingSource struct {
	realm.Source
	calls int
}

func (s *countingSource) Document(ctx context.Context, name string) ([]byte, error) {
	s.calls++
	return s.Source.Document(ctx, name)
}

func TestLoader_Cache(t *testing.T) {
	tests := map[string]struct {
		cache    bool
		expCalls int
	}{
		"cached loads once":     {cache: true, expCalls: 5},
		"uncached reloads each": {cache: false, expCalls: 10},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			src := &countingSource{Source: realm.NewFSSource(realmtest.FS())}
			l := realm.NewLoader(src, realmtest.Name, tt.cache)

			for i := 0; i < 2; i++ {
				if _, err := l.Catalog(context.Background()); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			testutil.AssertEqual(t, "document fetches", src.calls, tt.expCalls)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		mutate func(fstest.MapFS)
		expErr string
	}{
		"missing document": {
			mutate: func(fsys fstest.MapFS) { delete(fsys, "item.yaml") },
			expErr: "reading document item",
		},
		"bad yaml": {
			mutate: func(fsys fstest.MapFS) { fsys["enemy.yaml"] = &fstest.MapFile{Data: []byte("wolf: [")} },
			expErr: "decoding document enemy",
		},
		"wrong top level key": {
			mutate: func(fsys fstest.MapFS) {
				fsys[realmtest.Name+".yaml"] = &fstest.MapFile{Data: []byte("other_realm:\n  places: {}\n")}
			},
			expErr: `missing top level key "mock_realm"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := realmtest.FS()
			tt.mutate(fsys)

			_, err := realm.Load(context.Background(), realm.NewFSSource(fsys), realmtest.Name)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestFSSource_NotExist(t *testing.T) {
	_, err := realm.NewFSSource(fstest.MapFS{}).Document(context.Background(), "npc")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}
