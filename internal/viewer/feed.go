package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
	// Updates queued per client before new ones are dropped.
	clientQueue = 16
)

// Feed serves pose updates to websocket clients on /ws. A client receives
// the latest update on connect, then every following one.
type Feed struct {
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	ctx      context.Context

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	seq     int
	failed  error
	exited  bool
}

// client owns one connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	gone chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.gone)
		c.conn.Close()
	})
}

// NewFeed listens on addr and serves until ctx ends or Exit is called.
func NewFeed(ctx context.Context, addr string) (*Feed, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		listener: l,
		done:     make(chan struct{}),
		ctx:      ctx,
		clients:  make(map[*client]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWS)
	mux.HandleFunc("/healthz", f.handleHealth)
	mux.HandleFunc("/pose", f.handlePose)
	f.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := f.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Pose feed stopped: %v", err)
			f.mu.Lock()
			f.failed = err
			f.mu.Unlock()
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.server.Shutdown(shutdownCtx)
		f.closeClients()
	}()

	logger.Infof("Pose feed on ws://%s/ws", l.Addr())
	return f, nil
}

// Addr is the address the feed listens on.
func (f *Feed) Addr() net.Addr {
	return f.listener.Addr()
}

func (f *Feed) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.exited && f.failed == nil && f.ctx.Err() == nil
}

// Update queues the pose for every client without waiting on the network.
// A client whose queue is full misses the update.
func (f *Feed) Update(pose frame.Pose, translation, rotation string, state frame.TrackingState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exited {
		return
	}
	f.seq++
	payload, err := json.Marshal(Update{
		Pose:        pose.Slice(),
		Translation: translation,
		Rotation:    rotation,
		Tracking:    state,
		Sequence:    f.seq,
	})
	if err != nil {
		return
	}
	f.last = payload

	for c := range f.clients {
		select {
		case c.send <- payload:
		default:
			logger.Debugf("Dropping pose update %d for %s", f.seq, c.conn.RemoteAddr())
		}
	}
}

func (f *Feed) Exit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exited {
		return
	}
	f.exited = true
	close(f.done)
}

func (f *Feed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{
		conn: conn,
		send: make(chan []byte, clientQueue),
		gone: make(chan struct{}),
	}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	if f.last != nil {
		c.send <- f.last
	}
	f.mu.Unlock()

	go f.writeLoop(c)
	go func() {
		defer f.removeClient(c)
		// Clients only listen; reading keeps pongs and close frames flowing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *Feed) writeLoop(c *client) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer f.removeClient(c)
	for {
		select {
		case <-c.gone:
			return
		case payload := <-c.send:
			if err := write(c.conn, websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(c.conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !f.IsAvailable() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("closing"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (f *Feed) handlePose(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()
	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(last)
}

func (f *Feed) removeClient(c *client) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
	c.close()
}

func (f *Feed) closeClients() {
	f.mu.Lock()
	clients := make([]*client, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
		delete(f.clients, c)
	}
	f.mu.Unlock()

	// WriteControl may run concurrently with the writer goroutine.
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "capture finished")
	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.close()
	}
}

func write(conn *websocket.Conn, messageType int, payload []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
