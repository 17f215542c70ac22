// Package realmtest provides a small fixture realm for tests.
package realmtest

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/theUltimateZoltan/Realms/internal/realm"
)

const Name = "mock_realm"

const topology = `
mock_realm:
  places:
    noobville:
      title: Noobville
      text: A sleepy village where every adventure starts.
      travel: [forest, market]
      npc: [merchant, elder, ghost]
    market:
      title: Market
      text: Stalls and shouting.
      travel: [noobville]
      npc: [merchant]
    forest:
      title: Dark Forest
      text: Something howls in the distance.
      travel: [noobville, cave]
      encounter: [wolfpack]
    cave:
      title: Cave
      text: It is damp and it is dark.
      travel: [forest]
      encounter: [bats]
`

const npcs = `
merchant:
  talk: Buy something or leave.
  description: A round man behind a counter.
  shop:
    potion: 10
    sword: 100
elder:
  talk: Beware the forest.
  description:
    age: 97
    mood: grumpy
ghost:
  description: You are not sure it is there at all.
`

const items = `
potion:
  value: 10
  heals: 5
sword:
  value: 150
  damage: 3
shield:
  value: 50
`

const enemies = `
wolf:
  aggressive: true
  hp: 4
  att: 2
rabbit:
  aggressive: false
  hp: 1
bat:
  agressive: true
  hp: 2
`

const encounters = `
wolfpack:
  enemies:
    wolf: 2
    rabbit: 1
bats:
  enemies:
    bat: 3
`

// FS returns the fixture realm as "<document>.yaml" files.
func FS() fstest.MapFS {
	return fstest.MapFS{
		Name + ".yaml":                    {Data: []byte(topology)},
		realm.DocumentNpc + ".yaml":       {Data: []byte(npcs)},
		realm.DocumentItem + ".yaml":      {Data: []byte(items)},
		realm.DocumentEnemy + ".yaml":     {Data: []byte(enemies)},
		realm.DocumentEncounter + ".yaml": {Data: []byte(encounters)},
	}
}

// Loader returns a caching loader over the fixture realm.
func Loader() *realm.Loader {
	return realm.NewLoader(realm.NewFSSource(FS()), Name, true)
}

// Catalog loads the fixture realm, failing the test on error.
func Catalog(t *testing.T) *realm.Catalog {
	t.Helper()

	c, err := realm.Load(context.Background(), realm.NewFSSource(FS()), Name)
	if err != nil {
		t.Fatalf("loading fixture realm: %v", err)
	}
	return c
}
