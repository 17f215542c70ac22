package effect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/metrics"
	"github.com/theUltimateZoltan/Realms/internal/storage"
)

const (
	MsgPurchased         = "successfully purchased"
	MsgInsufficientFunds = "insufficient funds"
	MsgInvalidAmount     = "invalid amount"
)

// Publisher delivers a payload to a single connection.
type Publisher interface {
	Publish(connId string, data []byte) error
}

// Executor runs plans against the state store and the push channel.
type Executor struct {
	players *game.Players
	enemies *game.Enemies
	pub     Publisher
	metrics *metrics.Metrics
}

func NewExecutor(players *game.Players, enemies *game.Enemies, pub Publisher, m *metrics.Metrics) *Executor {
	return &Executor{
		players: players,
		enemies: enemies,
		pub:     pub,
		metrics: m,
	}
}

// Run executes every effect of the plan in order. Failed pushes are logged and
// skipped. A failed mutation stops the plan and is returned; effects that
// already ran stay applied.
func (x *Executor) Run(ctx context.Context, plan Plan) error {
	for i, e := range plan {
		if err := x.run(ctx, e); err != nil {
			return fmt.Errorf("effect %d (%T): %w", i, e, err)
		}
	}
	return nil
}

func (x *Executor) run(ctx context.Context, e Effect) error {
	switch e := e.(type) {
	case Log:
		slog.InfoContext(ctx, e.Message, e.Attrs...)
		return nil
	case Send:
		x.send(ctx, e.Conn, e.Payload)
		return nil
	case Broadcast:
		return x.broadcast(ctx, e)
	case Mutate:
		return x.mutate(ctx, e)
	default:
		return fmt.Errorf("unknown effect %T", e)
	}
}

func (x *Executor) send(ctx context.Context, conn string, payload any) {
	data, err := encodePayload(payload)
	if err != nil {
		slog.ErrorContext(ctx, "encoding payload", "conn", conn, "error", err)
		return
	}

	if _, ok := payload.(SystemNotice); ok {
		x.metrics.NoticeSent()
	}

	if err := x.pub.Publish(conn, data); err != nil {
		x.metrics.PushFailed()
		slog.WarnContext(ctx, "push failed", "conn", conn, "error", err)
	}
}

func (x *Executor) broadcast(ctx context.Context, b Broadcast) error {
	players, err := x.players.InPlace(ctx, b.Place)
	if err != nil {
		return err
	}
	for _, p := range players {
		x.send(ctx, p.ConnectionId, b.Payload)
	}
	return nil
}

func (x *Executor) mutate(ctx context.Context, m Mutate) error {
	var err error

	switch c := m.Change.(type) {
	case MoveTo:
		err = x.players.MoveTo(ctx, m.Target, c.Place)
	case Purchase:
		err = x.purchase(ctx, m.Target, c)
	case Disengage:
		var released int
		released, err = x.enemies.ReleaseAggro(ctx, c.Place, m.Target)
		if released > 0 {
			slog.DebugContext(ctx, "enemies disengaged", "conn", m.Target, "place", c.Place, "count", released)
		}
	case TickSpawn:
		err = x.enemies.TickSpawn(ctx, c.Slot)
	case Aggro:
		err = x.enemies.SetAggro(ctx, c.Slot, c.Victim)
	default:
		return fmt.Errorf("unknown change %T", m.Change)
	}

	if isBenign(err) {
		slog.DebugContext(ctx, "mutation skipped", "target", m.Target, "change", fmt.Sprintf("%T", m.Change), "reason", err)
		return nil
	}
	return err
}

func (x *Executor) purchase(ctx context.Context, conn string, p Purchase) error {
	err := x.players.Purchase(ctx, conn, p.Item, p.Amount, p.UnitPrice)
	switch {
	case err == nil:
		x.send(ctx, conn, SystemNotice{Message: MsgPurchased})
		return nil
	case errors.Is(err, game.ErrInsufficientFunds):
		x.send(ctx, conn, SystemNotice{Message: MsgInsufficientFunds})
		return nil
	case errors.Is(err, game.ErrInvalidAmount):
		x.send(ctx, conn, SystemNotice{Message: MsgInvalidAmount})
		return nil
	default:
		return err
	}
}

// isBenign reports whether a mutation error only means the record was not in
// the expected state, which is not a failure of the plan.
func isBenign(err error) bool {
	return errors.Is(err, storage.ErrConditionFailed) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, game.ErrPlayerNotFound)
}

func encodePayload(payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	return json.Marshal(payload)
}
