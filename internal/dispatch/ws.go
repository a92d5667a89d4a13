package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession is one connected driver feed. The mutex serializes writes,
// which gorilla/websocket requires.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry pushes new-request summaries to drivers holding a live
// WebSocket. It is a latency optimization over polling, never a
// correctness dependency: a driver with no session just sees the request
// on the next poll.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logger}
}

func (r *WSRegistry) Add(driverID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[driverID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(driverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, driverID)
}

// NotifyAll broadcasts to every connected driver. Sessions whose write
// fails are dropped; the driver reconnects or falls back to polling.
func (r *WSRegistry) NotifyAll(title, body string) {
	r.mu.RLock()
	snapshot := make(map[string]*WSSession, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s
	}
	r.mu.RUnlock()

	msg := map[string]string{"title": title, "body": body}
	for id, s := range snapshot {
		if err := s.Send(msg); err != nil {
			r.logger.Warn("ws send failed, dropping session", "driver_id", id, "error", err)
			r.Remove(id)
		}
	}
}

// Fanout delivers one notification through several channels.
type Fanout []interface{ NotifyAll(title, body string) }

func (f Fanout) NotifyAll(title, body string) {
	for _, n := range f {
		n.NotifyAll(title, body)
	}
}
