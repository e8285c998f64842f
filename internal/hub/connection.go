// internal/hub/connection.go
package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message is one outbound JSON event. Every message carries a "type" key.
type Message map[string]interface{}

// OutBufferSize is the number of messages a slow client may lag behind before drops start.
const OutBufferSize = 16

// Connection is a single client's presence on the websocket endpoint.
// It starts unbound and is bound to one (session, player) pair on join.
type Connection struct {
	ClientID   uuid.UUID
	RemoteAddr string
	Cancel     context.CancelFunc
	OutChan    chan Message

	mu        sync.Mutex
	closed    bool
	bound     bool
	sessionID uuid.UUID
	playerID  uuid.UUID
}

// NewConnection creates an unbound connection with a fresh client ID.
func NewConnection(remoteAddr string, cancel context.CancelFunc) *Connection {
	id, _ := uuid.NewRandom()
	return &Connection{
		ClientID:   id,
		RemoteAddr: remoteAddr,
		Cancel:     cancel,
		OutChan:    make(chan Message, OutBufferSize),
	}
}

// Write pushes a message onto OutChan without blocking. It returns false
// when the message was dropped because the channel is full or closed.
func (conn *Connection) Write(msg Message) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return false
	}
	select {
	case conn.OutChan <- msg:
		return true
	default:
		log.WithFields(log.Fields{
			"client": conn.ClientID,
			"type":   msg["type"],
		}).Warn("Outbound buffer full, dropping message")
		return false
	}
}

// WriteError sends an error event. message is omitted when empty.
func (conn *Connection) WriteError(code, message string) bool {
	msg := Message{"type": "error", "code": code}
	if message != "" {
		msg["message"] = message
	}
	return conn.Write(msg)
}

// Bind attaches the connection to a session seat. A connection binds at most once.
func (conn *Connection) Bind(sessionID, playerID uuid.UUID) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.bound {
		return false
	}
	conn.bound = true
	conn.sessionID = sessionID
	conn.playerID = playerID
	return true
}

// Binding returns the seat this connection joined, if any.
func (conn *Connection) Binding() (sessionID, playerID uuid.UUID, ok bool) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.sessionID, conn.playerID, conn.bound
}

// Close closes OutChan, which stops the write pump. Safe to call more than once.
func (conn *Connection) Close() {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return
	}
	conn.closed = true
	close(conn.OutChan)
}
