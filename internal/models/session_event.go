package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Session event types pushed to the historian queue.
const (
	EventSessionStarted = "session_started"
	EventTurnResolved   = "turn_resolved"
	EventSessionEnded   = "session_ended"
	EventSessionAborted = "session_aborted"
	EventSessionClosed  = "session_closed"
)

// SessionEvent holds the minimal info the historian needs to persist one
// session milestone.
type SessionEvent struct {
	SessionID  uuid.UUID       `json:"session_id"`
	EventIndex int             `json:"event_index"`
	ActorID    uuid.UUID       `json:"actor_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  int64           `json:"timestamp"`
}
