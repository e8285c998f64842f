package game

import "github.com/jason-s-yu/gpcards/internal/models"

// Status is the coarse lifecycle of a session.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Phase is the step of the current turn.
type Phase string

const (
	PhaseRoll    Phase = "roll"
	PhaseAnswer  Phase = "answer"
	PhaseJudge   Phase = "judge"
	PhaseResolve Phase = "resolve"
	PhaseEnded   Phase = "ended"
)

// Turn is the per-phase substate of the current turn. Each implementation
// carries only the fields that exist in its phase.
type Turn interface {
	Phase() Phase
}

// RollTurn waits for the active player to roll.
type RollTurn struct{}

// AnswerTurn waits for the active player's answer to the drawn card.
type AnswerTurn struct {
	Roll     int
	CellType models.CellType
	Card     models.Card
}

// JudgeTurn collects questions and votes from every other player.
type JudgeTurn struct {
	AnswerTurn
	Answer  models.Answer
	Judging models.Judging
}

// EndedTurn is terminal. Final keeps the last resolved turn so clients can show the verdict.
type EndedTurn struct {
	Final *JudgeTurn
}

func (RollTurn) Phase() Phase   { return PhaseRoll }
func (AnswerTurn) Phase() Phase { return PhaseAnswer }
func (JudgeTurn) Phase() Phase  { return PhaseJudge }
func (EndedTurn) Phase() Phase  { return PhaseEnded }
