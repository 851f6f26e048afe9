package display

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/petems/loopviz/internal/visualizer"
	"github.com/rs/zerolog"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, b *Broadcaster, want int) {
	t.Helper()
	for i := 0; i < 100; i++ { // Poll for 1 second
		if b.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", want, b.ClientCount())
}

func TestBroadcasterDeliversGridFrames(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, b, 1)

	if err := b.Render(visualizer.NewGrid(6, 21)); err != nil {
		t.Fatalf("render: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "grid" || frame.Rows != 6 || frame.Cols != 21 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if len(frame.Cells) != 6 || len(frame.Cells[0]) != 21 {
		t.Fatalf("unexpected cells shape")
	}
}

func TestBroadcasterDeliversStripFrames(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, b, 1)

	if err := b.Fade(visualizer.Color{R: 255, G: 10}, 0.75); err != nil {
		t.Fatalf("fade: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "strip" || frame.Coef != 0.75 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if frame.Color == nil || *frame.Color != [3]uint8{255, 10, 0} {
		t.Fatalf("unexpected colour %v", frame.Color)
	}
}

func TestBroadcasterForgetsClosedClients(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, b, 1)

	conn.Close()
	waitForClients(t, b, 0)

	// Rendering with nobody connected is fine
	if err := b.Render(visualizer.NewGrid(1, 1)); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, b, 1)

	b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected no clients after close, got %d", b.ClientCount())
	}
}

func TestBroadcasterRenderDoesNotWaitForIdleClient(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	// Connected but never reads
	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, b, 1)

	g := visualizer.NewGrid(6, 21)
	start := time.Now()
	for i := 0; i < 200; i++ {
		if err := b.Render(g); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("200 renders took %v with an idle client", elapsed)
	}
}

func TestBroadcasterDropsClientWithFullQueue(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	slow := &client{send: make(chan []byte, 1), remote: "slow"}
	b.clients[slow] = struct{}{}

	if err := b.Fade(visualizer.White, 0.5); err != nil {
		t.Fatalf("fade: %v", err)
	}
	if b.ClientCount() != 1 {
		t.Fatal("a client with room in its queue should stay connected")
	}

	if err := b.Fade(visualizer.White, 0.6); err != nil {
		t.Fatalf("fade: %v", err)
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected the slow client to be dropped, have %d clients", b.ClientCount())
	}

	// The queued frame is still delivered, then the channel is closed
	if _, ok := <-slow.send; !ok {
		t.Fatal("expected the first frame to remain queued")
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("expected the send queue to be closed")
	}

	// Removing an already dropped client is a no-op
	b.remove(slow)
}
