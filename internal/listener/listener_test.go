package listener

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"
)

// fakeLifecycle records lifecycle events and echoes every command back as a
// push to the sender.
type fakeLifecycle struct {
	mu       sync.Mutex
	events   []string
	pushes   *fakePushes
	commands chan string
}

func (f *fakeLifecycle) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeLifecycle) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeLifecycle) Connect(_ context.Context, connId string) error {
	f.record("connect " + connId)
	return nil
}

func (f *fakeLifecycle) Disconnect(_ context.Context, connId string) error {
	f.record("disconnect " + connId)
	return nil
}

func (f *fakeLifecycle) Handle(_ context.Context, connId, text string) error {
	f.record("handle " + connId + " " + text)
	if f.commands != nil {
		f.commands <- text
	}
	f.pushes.push(connId, []byte(`{"ECHO":"`+text+`"}`))
	return nil
}

type fakePushes struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
}

func (p *fakePushes) SubscribeConn(connId string, handler func([]byte)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers == nil {
		p.handlers = map[string]func([]byte){}
	}
	p.handlers[connId] = handler
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, connId)
	}, nil
}

func (p *fakePushes) push(connId string, data []byte) {
	p.mu.Lock()
	h := p.handlers[connId]
	p.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (p *fakePushes) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

func newTestManager() (*ConnectionManager, *fakeLifecycle, *fakePushes) {
	pushes := &fakePushes{}
	lc := &fakeLifecycle{pushes: pushes}
	cm := NewConnectionManager(lc, pushes)
	cm.newId = func() string { return "abc" }
	return cm, lc, pushes
}

type pipeConn struct {
	io.Reader
	io.Writer
}

func TestConnectionManager_AcceptConnection(t *testing.T) {
	cm, lc, pushes := newTestManager()

	conn := pipeConn{Reader: strings.NewReader("browse#\ntalk#hi#\n"), Writer: io.Discard}
	cm.AcceptConnection(context.Background(), conn)

	exp := []string{
		"connect abc",
		"handle abc browse#",
		"handle abc talk#hi#",
		"disconnect abc",
	}
	events := lc.Events()
	testutil.AssertEqual(t, "event count", len(events), len(exp))
	for i := range exp {
		testutil.AssertEqual(t, "event", events[i], exp[i])
	}
	testutil.AssertEqual(t, "subscriptions left", pushes.subscribers(), 0)
}

type recordingWriter struct {
	bytes.Buffer
}

func TestCRLFReadWriter(t *testing.T) {
	tests := map[string]struct {
		in      string
		expRead string
	}{
		"telnet crlf":   {in: "browse#\r\n", expRead: "browse#\n"},
		"pty cr":        {in: "browse#\r", expRead: "browse#\n"},
		"already plain": {in: "browse#\n", expRead: "browse#\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out := &recordingWriter{}
			rw := newCRLFReadWriter(pipeConn{Reader: strings.NewReader(tt.in), Writer: out})

			got, err := io.ReadAll(rw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "read", string(got), tt.expRead)

			n, err := rw.Write([]byte("a\nb\n"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "written length", n, 4)
			testutil.AssertEqual(t, "written", out.String(), "a\r\nb\r\n")
		})
	}
}

func TestWebsocketListener_RoundTrip(t *testing.T) {
	cm, lc, pushes := newTestManager()
	lc.commands = make(chan string, 1)
	l := NewWebsocketListener(0, "/ws", cm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.serve(ctx, w, r)
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("browse#")); err != nil {
		t.Fatalf("writing: %v", err)
	}

	select {
	case cmd := <-lc.commands:
		testutil.AssertEqual(t, "command", cmd, "browse#")
	case <-time.After(5 * time.Second):
		t.Fatal("command never handled")
	}

	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	testutil.AssertEqual(t, "push", string(msg), `{"ECHO":"browse#"}`)

	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	deadline := time.Now().Add(5 * time.Second)
	for pushes.subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was never closed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	events := lc.Events()
	testutil.AssertEqual(t, "first event", events[0], "connect abc")
	testutil.AssertEqual(t, "last event", events[len(events)-1], "disconnect abc")
}
