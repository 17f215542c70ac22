package player

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
)

// CommandHandler runs one raw command for a connection.
type CommandHandler interface {
	Handle(ctx context.Context, connId, text string) error
}

// Session pumps a line oriented connection: every inbound line is a command,
// every pushed message is written back as one line.
type Session struct {
	connId  string
	conn    io.ReadWriter
	handler CommandHandler
	msgs    <-chan []byte
}

func NewSession(connId string, conn io.ReadWriter, handler CommandHandler, msgs <-chan []byte) *Session {
	return &Session{
		connId:  connId,
		conn:    conn,
		handler: handler,
		msgs:    msgs,
	}
}

// Id returns the connection id the session runs for.
func (s *Session) Id() string {
	return s.connId
}

// Play runs until the connection closes or ctx is done.
func (s *Session) Play(ctx context.Context) error {
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		defer close(inputChan)
		scanner := bufio.NewScanner(s.conn)
		for scanner.Scan() {
			select {
			case inputChan <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		inputErrChan <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-s.msgs:
			if err := s.writeLine(msg); err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				select {
				case err := <-inputErrChan:
					return err
				default:
					return nil
				}
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// a failed command never ends the session
			if err := s.handler.Handle(ctx, s.connId, line); err != nil {
				slog.ErrorContext(ctx, "handling command", "conn", s.connId, "error", err)
			}
		}
	}
}

func (s *Session) writeLine(msg []byte) error {
	_, err := s.conn.Write(append(msg, '\n'))
	return err
}
