package messaging

import (
	"fmt"
	"time"
)

// readyWait bounds how long a subscription waits for the server to start.
const readyWait = 10 * time.Second

// ConnSubject is the subject a connection's pushes are published on.
func ConnSubject(connId string) string {
	return fmt.Sprintf("conn.%s", connId)
}

// NatsPublisher publishes pushes to per-connection NATS subjects.
type NatsPublisher struct {
	server *NatsServer
}

// NewNatsPublisher wraps a NatsServer for per-connection delivery.
func NewNatsPublisher(server *NatsServer) *NatsPublisher {
	return &NatsPublisher{server: server}
}

func (p *NatsPublisher) Publish(connId string, data []byte) error {
	return p.server.Publish(ConnSubject(connId), data)
}

// SubscribeConn delivers every push for connId to handler until the returned
// func is called.
func (p *NatsPublisher) SubscribeConn(connId string, handler func(data []byte)) (func(), error) {
	select {
	case <-p.server.Ready():
	case <-time.After(readyWait):
		return nil, fmt.Errorf("subscribing %s: nats server not ready", connId)
	}
	return p.server.Subscribe(ConnSubject(connId), handler)
}
