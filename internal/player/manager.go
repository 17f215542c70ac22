package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/theUltimateZoltan/Realms/internal/commands"
	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/metrics"
	"github.com/theUltimateZoltan/Realms/internal/realm"
)

// CatalogProvider yields the catalog a request resolves against.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*realm.Catalog, error)
}

// Runner executes plans.
type Runner interface {
	Run(ctx context.Context, plan effect.Plan) error
}

// PlayerManager handles the three lifecycle events of a connection. It keeps
// no state of its own between calls.
type PlayerManager struct {
	players  *game.Players
	enemies  *game.Enemies
	catalogs CatalogProvider
	runner   Runner
	metrics  *metrics.Metrics
}

func NewPlayerManager(players *game.Players, enemies *game.Enemies, catalogs CatalogProvider, runner Runner, m *metrics.Metrics) *PlayerManager {
	return &PlayerManager{
		players:  players,
		enemies:  enemies,
		catalogs: catalogs,
		runner:   runner,
		metrics:  m,
	}
}

// Connect creates the new-player record for connId unless it exists.
func (m *PlayerManager) Connect(ctx context.Context, connId string) error {
	created, err := m.players.Ensure(ctx, connId)
	if err != nil {
		return err
	}
	m.metrics.PlayerConnected()
	slog.InfoContext(ctx, "player connected", "conn", connId, "created", created)
	return nil
}

// Disconnect releases enemies engaged with the player and deletes the record.
func (m *PlayerManager) Disconnect(ctx context.Context, connId string) error {
	p, err := m.players.Get(ctx, connId)
	if errors.Is(err, game.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	plan := effect.Plan{effect.Mutate{Target: connId, Change: effect.Disengage{Place: p.Place}}}
	if err := m.runner.Run(ctx, plan); err != nil {
		slog.WarnContext(ctx, "releasing aggro on disconnect", "conn", connId, "error", err)
	}

	if err := m.players.Remove(ctx, connId); err != nil {
		return err
	}
	m.metrics.PlayerDisconnected()
	slog.InfoContext(ctx, "player disconnected", "conn", connId)
	return nil
}

// Handle runs one raw command from connId through parsing, resolution and
// execution. Rejected commands are answered with a system notice and are not
// an error.
func (m *PlayerManager) Handle(ctx context.Context, connId, text string) error {
	if _, err := m.players.Ensure(ctx, connId); err != nil {
		return err
	}

	catalog, err := m.catalogs.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	req := commands.Parse(ctx, text)
	resolver := commands.NewResolver(catalog, m.players)

	label := req.Action
	if !resolver.Handles(label) {
		label = "unknown"
	}
	m.metrics.CommandHandled(label)

	plan, err := resolver.Resolve(ctx, req, connId)
	if err != nil {
		var userErr *commands.UserError
		if !errors.As(err, &userErr) {
			return fmt.Errorf("resolving %s: %w", req.Action, err)
		}
		plan = effect.Plan{effect.Notice(connId, userErr.Message)}
	}

	if err := m.runner.Run(ctx, plan); err != nil {
		return fmt.Errorf("running %s: %w", req.Action, err)
	}
	return nil
}
