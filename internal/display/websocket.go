package display

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/petems/loopviz/internal/visualizer"
	"github.com/rs/zerolog"
)

const (
	// writeWait is how long to wait for a frame write to complete
	writeWait = 2 * time.Second

	// pongWait is how long a client may stay silent before it is dropped
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what clients may send; they only send control frames
	maxMessageSize = 512

	// sendBuffer is how many frames may queue for one client before it is
	// dropped as too slow
	sendBuffer = 16
)

// client is one websocket connection. Only its writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

// Broadcaster pushes every frame as JSON to all connected websocket clients.
// It is an http.Handler; mount it on any path. Render and Fade only queue
// frames and never wait on the network.
type Broadcaster struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Frames are read-only visual data
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: r.RemoteAddr,
	}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	count := len(b.clients)
	b.mu.Unlock()
	b.log.Info().Str("remote", c.remote).Int("clients", count).Msg("Client connected")

	go b.writePump(c)
	go b.readPump(c)
}

// readPump discards client messages and detects disconnection
func (b *Broadcaster) readPump(c *client) {
	defer func() {
		b.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains c.send until remove closes it
func (b *Broadcaster) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.remove(c)
				return
			}
		}
	}
}

// remove forgets c and closes its send channel. Safe to call repeatedly.
func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		b.drop(c)
	}
	count := len(b.clients)
	b.mu.Unlock()

	if ok {
		b.log.Info().Str("remote", c.remote).Int("clients", count).Msg("Client disconnected")
	}
}

// drop must be called with b.mu held and c registered
func (b *Broadcaster) drop(c *client) {
	delete(b.clients, c)
	close(c.send)
}

func (b *Broadcaster) Render(g *visualizer.Grid) error {
	return b.broadcast(GridFrame(g))
}

func (b *Broadcaster) Fade(c visualizer.Color, coef float64) error {
	return b.broadcast(StripFrame(c, coef))
}

// broadcast queues frame for every client. A client whose queue is full is
// dropped; that is not an error for the caller.
func (b *Broadcaster) broadcast(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			b.drop(c)
			b.log.Warn().Str("remote", c.remote).Msg("Dropped slow client")
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// ListenAndServe serves the broadcaster on addr until ctx is cancelled.
func (b *Broadcaster) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", b)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	b.log.Info().Str("addr", addr).Msg("Websocket display listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every client.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		b.drop(c)
	}
	return nil
}
