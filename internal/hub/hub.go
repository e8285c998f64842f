// internal/hub/hub.go
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub maps sessions to the connections of their seated players. Players
// never hold a connection handle; delivery looks the connection up here.
type Hub struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]map[uuid.UUID]*Connection
	logger   *logrus.Logger
}

func New(logger *logrus.Logger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[uuid.UUID]*Connection),
		logger:   logger,
	}
}

// Attach registers conn as the delivery target for playerID in sessionID.
func (h *Hub) Attach(sessionID, playerID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[sessionID]
	if !ok {
		conns = make(map[uuid.UUID]*Connection)
		h.sessions[sessionID] = conns
	}
	conns[playerID] = conn
}

// Detach forgets the player's connection. The session entry goes away with its last connection.
func (h *Hub) Detach(sessionID, playerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(conns, playerID)
	if len(conns) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Broadcast delivers msg to every connection attached to the session and
// returns how many accepted it. A full or closed connection only loses its own copy.
func (h *Hub) Broadcast(sessionID uuid.UUID, msg Message) int {
	h.mu.Lock()
	targets := make([]*Connection, 0, len(h.sessions[sessionID]))
	for _, conn := range h.sessions[sessionID] {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	delivered := 0
	for _, conn := range targets {
		if conn.Write(msg) {
			delivered++
			continue
		}
		h.logger.WithFields(logrus.Fields{
			"session": sessionID,
			"client":  conn.ClientID,
			"type":    msg["type"],
		}).Warn("Broadcast delivery failed")
	}
	return delivered
}

// SendTo delivers msg to a single seated player.
func (h *Hub) SendTo(sessionID, playerID uuid.UUID, msg Message) bool {
	h.mu.Lock()
	conn, ok := h.sessions[sessionID][playerID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	return conn.Write(msg)
}

// Connections returns the number of connections attached to the session.
func (h *Hub) Connections(sessionID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}
