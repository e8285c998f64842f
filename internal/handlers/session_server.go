// internal/handlers/session_server.go
package handlers

import (
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/jason-s-yu/gpcards/internal/hub"
	"github.com/sirupsen/logrus"
)

// SessionServer holds everything a connection handler needs. It is built
// once in main and shared by every handler.
type SessionServer struct {
	Store  *game.SessionStore
	Hub    *hub.Hub
	Logger *logrus.Logger

	// ReportMalformed answers undecodable or unknown messages with a
	// BAD_MESSAGE error instead of dropping them.
	ReportMalformed bool

	// PublicURL is the client base URL used to build join links. Empty
	// means the join link is derived from the request host.
	PublicURL string

	// ServerPort is echoed in the hello handshake.
	ServerPort int

	// ListSessions mounts GET /sessions, which exposes every live session
	// ID. Off unless an operator asks for it.
	ListSessions bool

	// OriginPatterns is passed to websocket.Accept.
	OriginPatterns []string
}

// NewSessionServer wires a server around store and h.
func NewSessionServer(store *game.SessionStore, h *hub.Hub, logger *logrus.Logger) *SessionServer {
	return &SessionServer{
		Store:          store,
		Hub:            h,
		Logger:         logger,
		OriginPatterns: []string{"*"},
	}
}

// SnapshotBroadcaster adapts a hub into the callback a SessionStore pushes
// snapshots through.
func SnapshotBroadcaster(h *hub.Hub) func(game.Snapshot) {
	return func(snap game.Snapshot) {
		h.Broadcast(snap.ID, updateMessage(snap))
	}
}
