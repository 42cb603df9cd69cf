package web

import (
	"sync"

	"tutorboard/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ConnectionPool tracks browser connections and broadcasts to them.
type ConnectionPool struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   zerolog.Logger
}

func NewConnectionPool(log zerolog.Logger) *ConnectionPool {
	return &ConnectionPool{conns: map[*websocket.Conn]struct{}{}, log: log}
}

func (cp *ConnectionPool) Add(conn *websocket.Conn) {
	cp.mu.Lock()
	cp.conns[conn] = struct{}{}
	cp.mu.Unlock()
	metrics.WebClients.Inc()
}

func (cp *ConnectionPool) Remove(conn *websocket.Conn) {
	cp.mu.Lock()
	_, ok := cp.conns[conn]
	delete(cp.conns, conn)
	cp.mu.Unlock()
	if ok {
		metrics.WebClients.Dec()
	}
	_ = conn.Close()
}

func (cp *ConnectionPool) Broadcast(data []byte) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for conn := range cp.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			cp.log.Warn().Err(err).Msg("ws broadcast failed, dropping connection")
			delete(cp.conns, conn)
			metrics.WebClients.Dec()
			_ = conn.Close()
		}
	}
}

// SendToOne writes under the pool lock so it never interleaves with Broadcast.
func (cp *ConnectionPool) SendToOne(conn *websocket.Conn, data []byte) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if _, ok := cp.conns[conn]; !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		cp.log.Warn().Err(err).Msg("ws send failed, dropping connection")
		delete(cp.conns, conn)
		metrics.WebClients.Dec()
		_ = conn.Close()
	}
}

func (cp *ConnectionPool) Count() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.conns)
}

func (cp *ConnectionPool) CloseAll() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for conn := range cp.conns {
		_ = conn.Close()
		delete(cp.conns, conn)
		metrics.WebClients.Dec()
	}
}
