package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/metrics"
	"github.com/theUltimateZoltan/Realms/internal/realm"
)

// CatalogProvider yields the catalog a tick runs against.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*realm.Catalog, error)
}

// Runner executes plans.
type Runner interface {
	Run(ctx context.Context, plan effect.Plan) error
}

// Processor advances every enemy slot once per tick and lets aggressive
// enemies pick a victim among the players sharing their place.
type Processor struct {
	catalogs CatalogProvider
	players  *game.Players
	runner   Runner
	metrics  *metrics.Metrics
	source   func() rand.Source
}

func NewProcessor(catalogs CatalogProvider, players *game.Players, runner Runner, opts ...ProcessorOpt) *Processor {
	p := &Processor{
		catalogs: catalogs,
		players:  players,
		runner:   runner,
		source: func() rand.Source {
			return rand.NewSource(time.Now().UnixNano())
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Tick builds and runs one tick's plan.
func (p *Processor) Tick(ctx context.Context) error {
	start := time.Now()

	catalog, err := p.catalogs.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	plan, err := p.Plan(ctx, catalog)
	if err != nil {
		return err
	}

	if err := p.runner.Run(ctx, plan); err != nil {
		return fmt.Errorf("running tick: %w", err)
	}

	p.metrics.TickProcessed(time.Since(start))
	slog.DebugContext(ctx, "tick processed", "effects", len(plan), "duration", time.Since(start))
	return nil
}

// Plan lists a TickSpawn for every slot followed by the aggro effects of
// every aggressive slot whose place has players in it.
func (p *Processor) Plan(ctx context.Context, catalog *realm.Catalog) (effect.Plan, error) {
	rng := rand.New(p.source())
	slots := catalog.Slots()

	var plan effect.Plan
	for _, s := range slots {
		plan.Then(effect.Mutate{Target: s.Key(), Change: effect.TickSpawn{Slot: s}})
	}

	present := map[string][]*game.Player{}
	for _, s := range slots {
		et := catalog.EnemyType(s.Enemy)
		if et == nil || !et.Aggressive {
			continue
		}

		players, scanned := present[s.Place]
		if !scanned {
			var err error
			players, err = p.players.InPlace(ctx, s.Place)
			if err != nil {
				return nil, err
			}
			present[s.Place] = players
		}
		if len(players) == 0 {
			continue
		}

		victim := players[rng.Intn(len(players))].ConnectionId
		plan.Then(
			effect.Mutate{Target: s.Key(), Change: effect.Aggro{Slot: s, Victim: victim}},
			effect.Send{Conn: victim, Payload: aggroEvent{Aggro: aggroTarget{Enemy: s.Enemy, Place: s.Place}}},
		)
	}

	return plan, nil
}

type aggroEvent struct {
	Aggro aggroTarget `json:"AGGRO"`
}

type aggroTarget struct {
	Enemy string `json:"enemy"`
	Place string `json:"place"`
}
