package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 5 * time.Second

// Stream broadcasts day reports as JSON to connected websocket clients.
// All socket writes happen on the hub goroutine.
type Stream struct {
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	broadcast  chan DayReport
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	last    DayReport
	hasLast bool
	dropped atomic.Int64
	count   atomic.Int64
}

// NewStream creates a stream hub with a bounded outgoing queue and starts it.
func NewStream(queueSize int) *Stream {
	if queueSize < 1 {
		queueSize = 1
	}
	s := &Stream{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan DayReport, queueSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers are local pages, often opened from file://.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Report implements Sink. It never blocks the simulation: when the queue is
// full the report is dropped and counted.
func (s *Stream) Report(_ context.Context, r DayReport) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.broadcast <- r:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Dropped returns how many reports were discarded because the queue was full.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	return int(s.count.Load())
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream_upgrade_failed", "error", err)
		return
	}

	select {
	case s.register <- conn:
	case <-s.done:
		conn.Close()
		return
	}

	// Drain client frames so close and ping frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case s.unregister <- conn:
	case <-s.done:
	}
}

// Serve listens on addr and serves the stream at path until ctx is cancelled.
func (s *Stream) Serve(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s)
	return serveHTTP(ctx, addr, mux, "stream")
}

// Close disconnects all clients and stops the hub. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

func (s *Stream) run() {
	defer s.wg.Done()
	defer func() {
		for conn := range s.clients {
			conn.Close()
			delete(s.clients, conn)
		}
		s.count.Store(0)
	}()

	for {
		select {
		case <-s.done:
			return

		case conn := <-s.register:
			s.clients[conn] = true
			s.count.Store(int64(len(s.clients)))
			// New viewers get the latest state immediately.
			if s.hasLast {
				if data, err := json.Marshal(s.last); err == nil {
					s.write(conn, data)
				}
			}

		case conn := <-s.unregister:
			s.drop(conn)

		case r := <-s.broadcast:
			s.last, s.hasLast = r, true
			data, err := json.Marshal(r)
			if err != nil {
				continue
			}
			for conn := range s.clients {
				s.write(conn, data)
			}
		}
	}
}

// write sends one message, dropping the client on failure.
func (s *Stream) write(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.drop(conn)
	}
}

func (s *Stream) drop(conn *websocket.Conn) {
	if _, ok := s.clients[conn]; !ok {
		return
	}
	delete(s.clients, conn)
	conn.Close()
	s.count.Store(int64(len(s.clients)))
}
