package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/theUltimateZoltan/Realms/internal/realm"
	"github.com/theUltimateZoltan/Realms/internal/storage"
)

// Players reads and changes player records. Every change is a single atomic
// store update.
type Players struct {
	store      storage.Storer[*Player]
	startPlace string
}

func NewPlayers(store storage.Storer[*Player], startPlace string) *Players {
	if startPlace == "" {
		startPlace = DefaultStartPlace
	}
	return &Players{store: store, startPlace: startPlace}
}

// Get returns the player record or ErrPlayerNotFound.
func (p *Players) Get(ctx context.Context, connId string) (*Player, error) {
	pl, err := p.store.Get(ctx, connId)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting player %s: %w", connId, err)
	}
	return pl, nil
}

func (p *Players) Exists(ctx context.Context, connId string) (bool, error) {
	_, err := p.Get(ctx, connId)
	if errors.Is(err, ErrPlayerNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Ensure creates the new-player record for connId unless one already exists.
// It reports whether a record was created.
func (p *Players) Ensure(ctx context.Context, connId string) (bool, error) {
	err := p.store.Create(ctx, connId, NewPlayer(connId, p.startPlace))
	if errors.Is(err, storage.ErrExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating player %s: %w", connId, err)
	}
	return true, nil
}

func (p *Players) Remove(ctx context.Context, connId string) error {
	if err := p.store.Delete(ctx, connId); err != nil {
		return fmt.Errorf("removing player %s: %w", connId, err)
	}
	return nil
}

// InPlace returns every player whose record is currently in place.
func (p *Players) InPlace(ctx context.Context, place string) ([]*Player, error) {
	players, err := p.store.Scan(ctx, func(pl *Player) bool {
		return pl.Place == place
	})
	if err != nil {
		return nil, fmt.Errorf("scanning players in %s: %w", place, err)
	}
	return players, nil
}

// MoveTo sets the player's place. It fails with storage.ErrNotFound when the
// player has disconnected.
func (p *Players) MoveTo(ctx context.Context, connId, place string) error {
	return p.store.Update(ctx, connId, func(pl *Player) error {
		pl.Place = place
		return nil
	})
}

// Purchase debits amount*price gold and credits amount of item in one
// update. ErrInsufficientFunds leaves the record untouched.
func (p *Players) Purchase(ctx context.Context, connId, item string, amount, price int) error {
	return p.store.Update(ctx, connId, func(pl *Player) error {
		if err := pl.Purchase(item, amount, price); err != nil {
			return err
		}
		return pl.Validate()
	})
}

// Enemies reads and changes enemy instance records.
type Enemies struct {
	store storage.Storer[*EnemyInstance]
}

func NewEnemies(store storage.Storer[*EnemyInstance]) *Enemies {
	return &Enemies{store: store}
}

func (e *Enemies) Get(ctx context.Context, s realm.Slot) (*EnemyInstance, error) {
	return e.store.Get(ctx, s.Key())
}

// TickSpawn advances a slot's spawn cooldown by one tick. A slot without a
// record is created spawned. A slot already at zero is left alone and
// storage.ErrConditionFailed is returned.
func (e *Enemies) TickSpawn(ctx context.Context, s realm.Slot) error {
	err := e.store.Create(ctx, s.Key(), NewEnemyInstance(s))
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrExists) {
		return err
	}

	return e.store.Update(ctx, s.Key(), func(inst *EnemyInstance) error {
		if inst.SpawnCooldown <= 0 {
			return storage.ErrConditionFailed
		}
		inst.SpawnCooldown--
		return nil
	})
}

// SetAggro points a slot's instance at victim.
func (e *Enemies) SetAggro(ctx context.Context, s realm.Slot, victim string) error {
	return e.store.Update(ctx, s.Key(), func(inst *EnemyInstance) error {
		inst.Aggro = victim
		return nil
	})
}

// ReleaseAggro clears the aggro target of every instance in place that is
// engaged with victim. It returns the number of instances released.
func (e *Enemies) ReleaseAggro(ctx context.Context, place, victim string) (int, error) {
	engaged, err := e.store.Scan(ctx, func(inst *EnemyInstance) bool {
		return inst.Place == place && inst.Aggro == victim
	})
	if err != nil {
		return 0, fmt.Errorf("scanning enemies in %s: %w", place, err)
	}

	released := 0
	for _, inst := range engaged {
		err := e.store.Update(ctx, inst.Key, func(cur *EnemyInstance) error {
			if cur.Aggro != victim {
				return storage.ErrConditionFailed
			}
			cur.Aggro = ""
			return nil
		})
		if errors.Is(err, storage.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

// InPlace returns every enemy instance record in place.
func (e *Enemies) InPlace(ctx context.Context, place string) ([]*EnemyInstance, error) {
	enemies, err := e.store.Scan(ctx, func(inst *EnemyInstance) bool {
		return inst.Place == place
	})
	if err != nil {
		return nil, fmt.Errorf("scanning enemies in %s: %w", place, err)
	}
	return enemies, nil
}
