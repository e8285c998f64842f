package models

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is a judge's opinion of an answer, and also the resolved outcome of a round.
type Verdict string

const (
	VerdictConvincing Verdict = "convincing"
	VerdictPartial    Verdict = "partial"
	VerdictNo         Verdict = "no"
)

// Valid reports whether v is one of the three accepted verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictConvincing, VerdictPartial, VerdictNo:
		return true
	}
	return false
}

// Answer is what the active player submits for the drawn card.
type Answer struct {
	GPCards       []string  `json:"gpCards"`
	Text          string    `json:"text"`
	Justification string    `json:"justification"`
	ByPlayerID    uuid.UUID `json:"byPlayerId"`
	At            time.Time `json:"at"`
}

type Question struct {
	JudgeID  uuid.UUID `json:"judgeId"`
	Question string    `json:"question"`
	At       time.Time `json:"at"`
}

type Vote struct {
	JudgeID uuid.UUID `json:"judgeId"`
	Vote    Verdict   `json:"vote"`
	Comment string    `json:"comment"`
	At      time.Time `json:"at"`
}

// Judging accumulates the judges' questions and votes for the current turn.
// Result stays nil until the round is resolved.
type Judging struct {
	Questions []Question `json:"questions"`
	Votes     []Vote     `json:"votes"`
	Result    *Verdict   `json:"result"`
}

// NewJudging returns an empty record with non-nil slices so it encodes as [] rather than null.
func NewJudging() Judging {
	return Judging{Questions: []Question{}, Votes: []Vote{}}
}

// Clone copies the slices so the result can be handed to another goroutine.
func (j Judging) Clone() Judging {
	out := Judging{
		Questions: append([]Question{}, j.Questions...),
		Votes:     append([]Vote{}, j.Votes...),
	}
	if j.Result != nil {
		r := *j.Result
		out.Result = &r
	}
	return out
}

// TurnRecord is one entry of a session's history, appended when a turn resolves.
type TurnRecord struct {
	At             time.Time `json:"at"`
	ActivePlayerID uuid.UUID `json:"activePlayerId"`
	Roll           int       `json:"roll"`
	CellType       CellType  `json:"cellType"`
	Card           Card      `json:"card"`
	Answer         Answer    `json:"answer"`
	Judging        Judging   `json:"judging"`
}
