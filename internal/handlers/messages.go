// internal/handlers/messages.go
package handlers

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/jason-s-yu/gpcards/internal/hub"
	"github.com/jason-s-yu/gpcards/internal/models"
)

// Client message types.
const (
	TypeSessionCreate = "session:create"
	TypeSessionJoin   = "session:join"
	TypeLobbyReady    = "lobby:ready"
	TypeGameStart     = "game:start"
	TypeTurnRoll      = "turn:roll"
	TypeSubmitAnswer  = "turn:submit_answer"
	TypeAskQuestion   = "judge:ask_question"
	TypeVote          = "judge:vote"
	TypePing          = "ping"
)

// Server message types.
const (
	TypeHello          = "hello"
	TypeSessionCreated = "session:created"
	TypeSessionJoined  = "session:joined"
	TypeSessionUpdate  = "session:update"
	TypeError          = "error"
	TypePong           = "pong"
)

// ClientMessage is the union of every client payload. Only the fields that
// belong to Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// session:create overrides sit at the top level of the message.
	models.SettingsOverrides

	SessionID string            `json:"sessionId,omitempty"`
	Name      string            `json:"name,omitempty"`
	Ready     bool              `json:"ready,omitempty"`
	Answer    *game.AnswerInput `json:"answer,omitempty"`
	Question  string            `json:"question,omitempty"`
	Vote      string            `json:"vote,omitempty"`
	Comment   string            `json:"comment,omitempty"`
}

func helloMessage(clientID uuid.UUID, port int) hub.Message {
	msg := hub.Message{"type": TypeHello, "clientId": clientID}
	if port > 0 {
		msg["serverPort"] = port
	}
	return msg
}

func createdMessage(snap game.Snapshot) hub.Message {
	return hub.Message{"type": TypeSessionCreated, "session": snap}
}

func joinedMessage(sessionID, playerID uuid.UUID) hub.Message {
	return hub.Message{"type": TypeSessionJoined, "sessionId": sessionID, "playerId": playerID}
}

func updateMessage(snap game.Snapshot) hub.Message {
	return hub.Message{"type": TypeSessionUpdate, "session": snap}
}
