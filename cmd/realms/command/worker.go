package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-service"
	"github.com/theUltimateZoltan/Realms/internal/driver"
	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/listener"
	"github.com/theUltimateZoltan/Realms/internal/messaging"
	"github.com/theUltimateZoltan/Realms/internal/metrics"
	"github.com/theUltimateZoltan/Realms/internal/player"
	"github.com/theUltimateZoltan/Realms/internal/spawn"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	m := metrics.New()

	// Load the realm once up front so a broken realm fails at startup
	loader := cfg.Realm.buildLoader()
	catalog, err := loader.Catalog(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loading realm: %w", err)
	}
	startPlace := cfg.PlayerManager.startPlace()
	if catalog.Place(startPlace) == nil {
		return nil, fmt.Errorf("start place %q is not in realm %s", startPlace, catalog.Name())
	}

	st, err := cfg.Storage.buildStores()
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}
	players := game.NewPlayers(st.players, startPlace)
	enemies := game.NewEnemies(st.enemies)

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	publisher := messaging.NewNatsPublisher(natsServer)

	exec := effect.NewExecutor(players, enemies, publisher, m)
	pm := player.NewPlayerManager(players, enemies, loader, exec, m)
	cm := listener.NewConnectionManager(pm, publisher)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lw, err := l.buildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lw
	}

	tickLength, err := cfg.tickLength()
	if err != nil {
		return nil, err
	}
	var driverOpts []driver.RealmDriverOpt
	if tickLength > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(tickLength))
	}
	processor := spawn.NewProcessor(loader, players, exec, spawn.WithMetrics(m))
	realmDriver := driver.NewRealmDriver([]driver.Ticker{processor}, driverOpts...)

	workers := service.WorkerList{
		"nats":      natsServer,
		"driver":    realmDriver,
		"listeners": &listeners,
	}
	if st.owner != nil {
		workers["storage"] = st.owner
	}
	if srv := cfg.Metrics.buildServer(m); srv != nil {
		workers["metrics"] = srv
	}

	return workers, nil
}
