// internal/game/session.go
package game

import (
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
	log "github.com/sirupsen/logrus"
)

// Input limits. Longer values are truncated, never rejected.
const (
	MaxNameLength      = 24
	MaxNarrativeLength = 2000
	MaxSelectionItems  = 8
	MaxQuestionLength  = 300
	MaxCommentLength   = 300

	DefaultPlayerName = "Joueur"
)

// EventSink receives session milestones for the historian. Implementations
// must not block: they are called while the session lock is held.
type EventSink interface {
	PublishSessionEvent(ev models.SessionEvent)
}

// AnswerInput is the raw answer payload sent by the active player.
type AnswerInput struct {
	GPCards       []string `json:"gpCards"`
	Text          string   `json:"text"`
	Justification string   `json:"justification"`
}

// Session holds the entire state for a single game instance in memory.
// Every action takes mu for its whole duration and performs no I/O, so at
// most one mutation per session is in flight.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Settings  models.Settings

	mu        sync.Mutex
	players   []*models.Player
	status    Status
	turnIndex int
	turn      Turn
	history   []models.TurnRecord

	// closed is set once the last player leaves; the store drops the session right after.
	closed bool

	deck       Deck
	sink       EventSink
	eventIndex int

	// broadcastFn receives every post-change snapshot, in mutation order.
	// It is called with mu held and must only do non-blocking sends.
	broadcastFn func(Snapshot)

	dice func() int
	now  func() time.Time
}

func newSession(settings models.Settings, d Deck, sink EventSink, broadcastFn func(Snapshot)) *Session {
	id, _ := uuid.NewRandom()
	now := func() time.Time { return time.Now().UTC() }
	return &Session{
		ID:          id,
		CreatedAt:   now(),
		Settings:    settings.Normalize(),
		players:     []*models.Player{},
		status:      StatusLobby,
		turn:        RollTurn{},
		history:     []models.TurnRecord{},
		deck:        d,
		sink:        sink,
		broadcastFn: broadcastFn,
		dice:        func() int { return rand.Intn(6) + 1 },
		now:         now,
	}
}

// Join appends a new, not-ready player. Only allowed in the lobby and while a seat is free.
// onSeated, if set, runs before the resulting update is broadcast so the
// caller can attach the new player's connection first.
func (s *Session) Join(name string, onSeated func(models.Player)) (models.Player, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Player{}, Snapshot{}, actionErrorf(CodeNotFound, "session %s is closed", s.ID)
	}
	if s.status != StatusLobby {
		return models.Player{}, Snapshot{}, actionErrorf(CodeWrongPhase, "session already %s", s.status)
	}
	if len(s.players) >= s.Settings.MaxPlayers {
		return models.Player{}, Snapshot{}, actionErrorf(CodeFull, "session has %d/%d players", len(s.players), s.Settings.MaxPlayers)
	}

	name = truncate(strings.TrimSpace(name), MaxNameLength)
	if name == "" {
		name = DefaultPlayerName
	}
	id, _ := uuid.NewRandom()
	p := &models.Player{ID: id, Name: name}
	s.players = append(s.players, p)

	log.Infof("Session %s: player %s (%s) joined, %d/%d seats.", s.ID, p.ID, p.Name, len(s.players), s.Settings.MaxPlayers)
	if onSeated != nil {
		onSeated(*p)
	}
	return *p, s.changedLocked(), nil
}

// SetReady flips a member's readiness in the lobby.
func (s *Session) SetReady(playerID uuid.UUID, ready bool) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(playerID)
	if p == nil {
		return Snapshot{}, actionErrorf(CodeNotFound, "player %s not in session", playerID)
	}
	if s.status != StatusLobby {
		return Snapshot{}, actionErrorf(CodeWrongPhase, "readiness only changes in the lobby")
	}
	p.Ready = ready
	return s.changedLocked(), nil
}

// Start moves a lobby with at least two players, all ready, into play.
func (s *Session) Start(actorID uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerLocked(actorID) == nil {
		return Snapshot{}, actionErrorf(CodeNotFound, "player %s not in session", actorID)
	}
	if s.status != StatusLobby {
		return Snapshot{}, actionErrorf(CodeWrongPhase, "session already %s", s.status)
	}
	if !s.allReadyLocked() {
		return Snapshot{}, actionErrorf(CodeNotReady, "need at least %d players, all ready", models.MinPlayers)
	}

	s.status = StatusPlaying
	s.turnIndex = 0
	s.turn = RollTurn{}
	s.history = []models.TurnRecord{}
	for _, p := range s.players {
		p.Position = 0
	}

	log.Infof("Session %s: game started with %d players.", s.ID, len(s.players))
	s.publishLocked(actorID, models.EventSessionStarted, map[string]interface{}{
		"players":  len(s.players),
		"settings": s.Settings,
	})
	return s.changedLocked(), nil
}

// Roll throws the die for the active player, moves them and draws the card for the cell they land on.
func (s *Session) Roll(actorID uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.requireActiveLocked(actorID, PhaseRoll)
	if err != nil {
		return Snapshot{}, err
	}

	roll := s.dice()
	pos := clamp(active.Position+roll, s.Settings.BoardSize)
	cell := CellTypeAt(pos)
	card := cardFor(cell, s.deck)

	active.Position = pos
	s.turn = AnswerTurn{Roll: roll, CellType: cell, Card: card}
	log.Debugf("Session %s: player %s rolled %d, now on %d (%s).", s.ID, active.ID, roll, active.Position, cell)
	return s.changedLocked(), nil
}

// SubmitAnswer records the active player's answer and opens judging.
func (s *Session) SubmitAnswer(actorID uuid.UUID, in AnswerInput) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.requireActiveLocked(actorID, PhaseAnswer)
	if err != nil {
		return Snapshot{}, err
	}
	at := s.turn.(AnswerTurn)

	cards := in.GPCards
	if len(cards) > MaxSelectionItems {
		cards = cards[:MaxSelectionItems]
	}
	answer := models.Answer{
		GPCards:       append([]string{}, cards...),
		Text:          truncate(in.Text, MaxNarrativeLength),
		Justification: truncate(in.Justification, MaxNarrativeLength),
		ByPlayerID:    active.ID,
		At:            s.now(),
	}

	s.turn = JudgeTurn{AnswerTurn: at, Answer: answer, Judging: models.NewJudging()}
	return s.changedLocked(), nil
}

// AskQuestion lets a judge question the active player during judging.
func (s *Session) AskQuestion(actorID uuid.UUID, question string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jt, err := s.requireJudgeLocked(actorID)
	if err != nil {
		return Snapshot{}, err
	}
	question = truncate(strings.TrimSpace(question), MaxQuestionLength)
	if question == "" {
		return Snapshot{}, actionErrorf(CodeBadMessage, "question is empty")
	}

	jt.Judging.Questions = append(jt.Judging.Questions, models.Question{JudgeID: actorID, Question: question, At: s.now()})
	s.turn = jt
	return s.changedLocked(), nil
}

// CastVote upserts a judge's vote. The vote that completes the quorum
// (one per other player) resolves the turn immediately.
func (s *Session) CastVote(actorID uuid.UUID, vote models.Verdict, comment string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jt, err := s.requireJudgeLocked(actorID)
	if err != nil {
		return Snapshot{}, err
	}
	if !vote.Valid() {
		return Snapshot{}, actionErrorf(CodeInvalidVote, "unknown vote %q", vote)
	}

	votes := make([]models.Vote, 0, len(jt.Judging.Votes)+1)
	for _, v := range jt.Judging.Votes {
		if v.JudgeID != actorID {
			votes = append(votes, v)
		}
	}
	votes = append(votes, models.Vote{
		JudgeID: actorID,
		Vote:    vote,
		Comment: truncate(comment, MaxCommentLength),
		At:      s.now(),
	})
	jt.Judging.Votes = votes

	s.settleJudgingLocked(jt)
	return s.changedLocked(), nil
}

// RemovePlayer drops a player from the seat order. It reports empty=true when
// no players remain; the caller is then expected to remove the session from the store.
func (s *Session) RemovePlayer(playerID uuid.UUID) (snap Snapshot, empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(playerID)
	if idx < 0 {
		return s.snapshotLocked(), len(s.players) == 0
	}
	wasActive := s.status == StatusPlaying && idx == s.turnIndex

	s.players = append(s.players[:idx], s.players[idx+1:]...)
	log.Infof("Session %s: player %s left, %d remaining.", s.ID, playerID, len(s.players))

	if len(s.players) == 0 {
		s.closed = true
		return s.snapshotLocked(), true
	}

	if s.status != StatusPlaying {
		return s.changedLocked(), false
	}
	if len(s.players) < models.MinPlayers {
		s.abortToLobbyLocked()
		return s.changedLocked(), false
	}

	switch {
	case wasActive:
		// The turn in flight is discarded and play restarts from the first seat.
		log.Infof("Session %s: active player left mid-turn, resetting to seat 0.", s.ID)
		s.turnIndex = 0
		s.turn = RollTurn{}
	case idx < s.turnIndex:
		s.turnIndex--
	}
	if jt, ok := s.turn.(JudgeTurn); ok {
		jt.Judging.Votes = dropVotesBy(jt.Judging.Votes, playerID)
		s.settleJudgingLocked(jt)
	}
	return s.changedLocked(), false
}

// Snapshot returns the public view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// changedLocked snapshots the session after a successful mutation and hands
// the snapshot to broadcastFn. Assumes lock is held.
func (s *Session) changedLocked() Snapshot {
	snap := s.snapshotLocked()
	if s.broadcastFn != nil {
		s.broadcastFn(snap)
	}
	return snap
}

// PlayerCount returns the number of seated players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// settleJudgingLocked makes jt the current turn, resolving it first when
// every other player has voted. The outcome is computed before any session
// field is written. Assumes lock is held.
func (s *Session) settleJudgingLocked(jt JudgeTurn) {
	if len(s.players) < models.MinPlayers || len(jt.Judging.Votes) < len(s.players)-1 {
		s.turn = jt
		return
	}

	verdicts := make([]models.Verdict, len(jt.Judging.Votes))
	for i, v := range jt.Judging.Votes {
		verdicts[i] = v.Vote
	}
	result := ResolveVerdict(verdicts)
	jt.Judging.Result = &result

	active := s.players[s.turnIndex]
	pos := clamp(active.Position+positionDelta(result, jt.CellType), s.Settings.BoardSize)
	rec := models.TurnRecord{
		At:             s.now(),
		ActivePlayerID: active.ID,
		Roll:           jt.Roll,
		CellType:       jt.CellType,
		Card:           jt.Card,
		Answer:         jt.Answer,
		Judging:        jt.Judging.Clone(),
	}
	finished := pos >= s.Settings.BoardSize

	active.Position = pos
	s.history = append(s.history, rec)
	if finished {
		s.status = StatusEnded
		final := jt
		s.turn = EndedTurn{Final: &final}
	} else {
		s.turnIndex = (s.turnIndex + 1) % len(s.players)
		s.turn = RollTurn{}
	}

	log.Infof("Session %s: %s resolved turn of player %s as %s, position %d.", s.ID, PhaseResolve, active.ID, result, pos)
	s.publishLocked(active.ID, models.EventTurnResolved, rec)
	if finished {
		log.Infof("Session %s: player %s reached the finish line after %d turns.", s.ID, active.ID, len(s.history))
		s.publishLocked(active.ID, models.EventSessionEnded, map[string]interface{}{
			"winner": active.ID,
			"turns":  len(s.history),
		})
	}
}

// abortToLobbyLocked sends a game that no longer has enough players to judge
// a turn back to the lobby. Readiness is cleared; Start resets positions and
// history. Assumes lock is held.
func (s *Session) abortToLobbyLocked() {
	log.Infof("Session %s: %d player(s) left, returning to lobby.", s.ID, len(s.players))
	s.status = StatusLobby
	s.turnIndex = 0
	s.turn = RollTurn{}
	for _, p := range s.players {
		p.Ready = false
	}
	s.publishLocked(uuid.Nil, models.EventSessionAborted, map[string]interface{}{
		"players": len(s.players),
		"turns":   len(s.history),
	})
}

// requireActiveLocked checks that the session is playing, that actorID holds
// the turn and that the turn is in the wanted phase. Assumes lock is held.
func (s *Session) requireActiveLocked(actorID uuid.UUID, want Phase) (*models.Player, error) {
	if s.status != StatusPlaying {
		return nil, actionErrorf(CodeWrongPhase, "session is %s", s.status)
	}
	active := s.players[s.turnIndex]
	if active.ID != actorID {
		return nil, actionErrorf(CodeOutOfTurn, "it is %s's turn", active.Name)
	}
	if got := s.turn.Phase(); got != want {
		return nil, actionErrorf(CodeWrongPhase, "turn is in %s, not %s", got, want)
	}
	return active, nil
}

// requireJudgeLocked checks that the session is judging and that actorID is
// a member other than the active player. Assumes lock is held.
func (s *Session) requireJudgeLocked(actorID uuid.UUID) (JudgeTurn, error) {
	jt, ok := s.turn.(JudgeTurn)
	if s.status != StatusPlaying || !ok {
		return JudgeTurn{}, actionErrorf(CodeWrongPhase, "not judging")
	}
	if s.playerLocked(actorID) == nil {
		return JudgeTurn{}, actionErrorf(CodeNotFound, "player %s not in session", actorID)
	}
	if s.players[s.turnIndex].ID == actorID {
		return JudgeTurn{}, actionErrorf(CodeOutOfTurn, "the active player cannot judge their own answer")
	}
	return jt, nil
}

func (s *Session) allReadyLocked() bool {
	if len(s.players) < models.MinPlayers {
		return false
	}
	for _, p := range s.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s *Session) indexLocked(playerID uuid.UUID) int {
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) playerLocked(playerID uuid.UUID) *models.Player {
	if i := s.indexLocked(playerID); i >= 0 {
		return s.players[i]
	}
	return nil
}

// publishLocked hands a milestone to the sink, if any. Assumes lock is held.
func (s *Session) publishLocked(actorID uuid.UUID, eventType string, payload interface{}) {
	if s.sink == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warnf("Session %s: failed to marshal %s payload: %v", s.ID, eventType, err)
		return
	}
	s.eventIndex++
	s.sink.PublishSessionEvent(models.SessionEvent{
		SessionID:  s.ID,
		EventIndex: s.eventIndex,
		ActorID:    actorID,
		EventType:  eventType,
		Payload:    data,
		Timestamp:  s.now().UnixMilli(),
	})
}

// close marks the session as gone so late joins are refused.
func (s *Session) close() (players int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.publishLocked(uuid.Nil, models.EventSessionClosed, map[string]interface{}{
		"status": s.status,
		"turns":  len(s.history),
	})
	return len(s.players)
}

func dropVotesBy(votes []models.Vote, judgeID uuid.UUID) []models.Vote {
	out := make([]models.Vote, 0, len(votes))
	for _, v := range votes {
		if v.JudgeID != judgeID {
			out = append(out, v)
		}
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
