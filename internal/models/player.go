package models

import "github.com/google/uuid"

// Player is one seat in a session. The live connection is not referenced here;
// the hub maps player IDs to connections at delivery time.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	Position int       `json:"position"`
}
