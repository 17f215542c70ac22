package listener

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/theUltimateZoltan/Realms/internal/player"
)

const pushBuffer = 64

// Lifecycle receives the connect, message and disconnect events of every
// connection.
type Lifecycle interface {
	Connect(ctx context.Context, connId string) error
	Disconnect(ctx context.Context, connId string) error
	Handle(ctx context.Context, connId, text string) error
}

// PushSubscriber delivers the pushes addressed to one connection.
type PushSubscriber interface {
	SubscribeConn(connId string, handler func(data []byte)) (func(), error)
}

// ConnectionManager ties accepted connections to the player lifecycle and
// the push channel.
type ConnectionManager struct {
	lc     Lifecycle
	pushes PushSubscriber
	newId  func() string
}

func NewConnectionManager(lc Lifecycle, pushes PushSubscriber) *ConnectionManager {
	return &ConnectionManager{
		lc:     lc,
		pushes: pushes,
		newId:  uuid.NewString,
	}
}

// AcceptConnection runs a line oriented connection until it closes.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	c, err := m.open(ctx)
	if err != nil {
		slog.WarnContext(ctx, "opening connection", "error", err)
		return
	}
	defer c.close(ctx)

	if err := player.NewSession(c.id, conn, m.lc, c.msgs).Play(ctx); err != nil {
		slog.WarnContext(ctx, "player session", "conn", c.id, "error", err)
	}
}

// connection is one open connection: its id and the pushes addressed to it.
type connection struct {
	id          string
	msgs        chan []byte
	unsubscribe func()
	lc          Lifecycle
}

func (m *ConnectionManager) open(ctx context.Context) (*connection, error) {
	c := &connection{
		id:   m.newId(),
		msgs: make(chan []byte, pushBuffer),
		lc:   m.lc,
	}

	unsubscribe, err := m.pushes.SubscribeConn(c.id, func(data []byte) {
		select {
		case c.msgs <- data:
		default:
			slog.WarnContext(ctx, "push dropped, client too slow", "conn", c.id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing pushes for %s: %w", c.id, err)
	}
	c.unsubscribe = unsubscribe

	if err := m.lc.Connect(ctx, c.id); err != nil {
		unsubscribe()
		return nil, fmt.Errorf("connecting %s: %w", c.id, err)
	}
	return c, nil
}

func (c *connection) close(ctx context.Context) {
	// the connection context may already be cancelled
	if err := c.lc.Disconnect(context.WithoutCancel(ctx), c.id); err != nil {
		slog.WarnContext(ctx, "disconnecting", "conn", c.id, "error", err)
	}
	c.unsubscribe()
}
