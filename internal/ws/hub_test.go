package ws_test

import (
	"sync"
	"testing"
	"time"

	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
	"github.com/CianusDev/synkrone-backend-sub000/internal/ws"
)

var _ services.Broadcaster = (*ws.Hub)(nil)

type fakeConn struct {
	mu     sync.Mutex
	frames []ws.Envelope
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v.(ws.Envelope))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() []ws.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ws.Envelope, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEmitReachesEveryConnectionOfUser(t *testing.T) {
	hub := ws.NewHub(nil)

	phone := &fakeConn{}
	laptop := &fakeConn{}
	other := &fakeConn{}
	hub.AddClient("user-a", phone)
	hub.AddClient("user-a", laptop)
	hub.AddClient("user-b", other)

	hub.EmitToUser("user-a", "receive_message", map[string]string{"content": "hello"})

	waitFor(t, func() bool {
		return len(phone.snapshot()) == 1 && len(laptop.snapshot()) == 1
	})

	frame := phone.snapshot()[0]
	if frame.Event != "receive_message" {
		t.Fatalf("expected receive_message envelope, got %q", frame.Event)
	}
	if len(other.snapshot()) != 0 {
		t.Fatal("another user's connection must not receive the event")
	}
}

func TestEmitToUserWithoutConnectionsIsSilent(t *testing.T) {
	hub := ws.NewHub(nil)
	// Must not panic or block.
	hub.EmitToUser("nobody", "receive_message", map[string]string{"content": "void"})
}

func TestRemovedClientStopsReceiving(t *testing.T) {
	hub := ws.NewHub(nil)

	conn := &fakeConn{}
	client := hub.AddClient("user-a", conn)

	hub.EmitToUser("user-a", "receive_message", map[string]string{"n": "1"})
	waitFor(t, func() bool { return len(conn.snapshot()) == 1 })

	hub.RemoveClient(client)
	waitFor(t, conn.isClosed)

	hub.EmitToUser("user-a", "receive_message", map[string]string{"n": "2"})
	time.Sleep(20 * time.Millisecond)
	if got := conn.snapshot(); len(got) != 1 {
		t.Fatalf("expected no delivery after removal, got %d frames", len(got))
	}
}
