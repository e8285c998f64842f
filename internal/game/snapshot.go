// internal/game/snapshot.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
)

// StateView flattens the current Turn into nullable fields for the wire.
type StateView struct {
	Status    Status              `json:"status"`
	TurnIndex int                 `json:"turnIndex"`
	Phase     Phase               `json:"phase"`
	Roll      *int                `json:"roll"`
	CellType  *models.CellType    `json:"cellType"`
	Card      *models.Card        `json:"card"`
	Answer    *models.Answer      `json:"answer"`
	Judging   models.Judging      `json:"judging"`
	History   []models.TurnRecord `json:"history"`
}

// Snapshot is the full public view of a session, broadcast after every change.
// It shares no memory with the live session.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Settings  models.Settings `json:"settings"`
	State     StateView       `json:"state"`
	Players   []models.Player `json:"players"`
}

// ActivePlayer returns the player holding the turn, if the game is in play.
func (s Snapshot) ActivePlayer() (models.Player, bool) {
	if s.State.Status != StatusPlaying || s.State.TurnIndex >= len(s.Players) {
		return models.Player{}, false
	}
	return s.Players[s.State.TurnIndex], true
}

// snapshotLocked builds a deep copy of the session. Assumes lock is held.
func (s *Session) snapshotLocked() Snapshot {
	players := make([]models.Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}

	history := make([]models.TurnRecord, len(s.history))
	for i, rec := range s.history {
		rec.Answer.GPCards = append([]string{}, rec.Answer.GPCards...)
		rec.Judging = rec.Judging.Clone()
		history[i] = rec
	}

	view := StateView{
		Status:    s.status,
		TurnIndex: s.turnIndex,
		Phase:     s.turn.Phase(),
		Judging:   models.NewJudging(),
		History:   history,
	}

	switch t := s.turn.(type) {
	case AnswerTurn:
		fillAnswerTurn(&view, t)
	case JudgeTurn:
		fillJudgeTurn(&view, t)
	case EndedTurn:
		if t.Final != nil {
			fillJudgeTurn(&view, *t.Final)
		}
	}

	return Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Settings:  s.Settings,
		State:     view,
		Players:   players,
	}
}

func fillAnswerTurn(v *StateView, t AnswerTurn) {
	roll, cell, card := t.Roll, t.CellType, t.Card
	v.Roll = &roll
	v.CellType = &cell
	v.Card = &card
}

func fillJudgeTurn(v *StateView, t JudgeTurn) {
	fillAnswerTurn(v, t.AnswerTurn)
	answer := t.Answer
	answer.GPCards = append([]string{}, t.Answer.GPCards...)
	v.Answer = &answer
	v.Judging = t.Judging.Clone()
}
