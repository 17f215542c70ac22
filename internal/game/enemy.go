package game

import "github.com/theUltimateZoltan/Realms/internal/realm"

// EnemyInstance is the mutable state of one enemy slot. A slot with a zero
// SpawnCooldown is spawned.
type EnemyInstance struct {
	Key           string `json:"key"`
	Place         string `json:"place"`
	Encounter     string `json:"encounter"`
	Type          string `json:"type"`
	Slot          int    `json:"slot"`
	SpawnCooldown int    `json:"spawn_cooldown"`
	Aggro         string `json:"aggro,omitempty"`
}

// NewEnemyInstance returns a freshly spawned, unengaged instance for a slot.
func NewEnemyInstance(s realm.Slot) *EnemyInstance {
	return &EnemyInstance{
		Key:       s.Key(),
		Place:     s.Place,
		Encounter: s.Encounter,
		Type:      s.Enemy,
		Slot:      s.Index,
	}
}

func (e *EnemyInstance) Spawned() bool {
	return e.SpawnCooldown == 0
}
