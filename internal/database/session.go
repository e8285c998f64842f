// internal/database/session.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/gpcards/internal/models"
)

// Session row statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusClosed     = "closed"
	StatusAbandoned  = "abandoned"
)

// Store persists historian batches.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertSessionEvents writes a batch in one transaction. Replayed events
// (same session and index) are ignored.
func (s *Store) InsertSessionEvents(ctx context.Context, events []models.SessionEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := beginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range events {
			if err := insertSessionEventTx(ctx, tx, ev); err != nil {
				return fmt.Errorf("insertSessionEventTx %s/%d: %w", ev.SessionID, ev.EventIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert session events: %w", err)
	}
	return nil
}

// MarkSessionAbandoned flags a session that is still in progress. It reports
// whether a row was changed.
func (s *Store) MarkSessionAbandoned(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var changed bool
	err := beginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE sessions
			SET status = $2, end_time = NOW()
			WHERE id = $1 AND status = $3
		`
		tag, err := tx.Exec(ctx, q, sessionID, StatusAbandoned, StatusInProgress)
		if err != nil {
			return err
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	return changed, err
}

func insertSessionEventTx(ctx context.Context, tx pgx.Tx, ev models.SessionEvent) error {
	at := eventTime(ev)

	upsertSessionQ := `
		INSERT INTO sessions (id, status, start_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertSessionQ, ev.SessionID, StatusInProgress, at); err != nil {
		return err
	}

	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	var actor *uuid.UUID
	if ev.ActorID != uuid.Nil {
		actor = &ev.ActorID
	}
	insertEventQ := `
		INSERT INTO session_events (
			session_id, event_index, actor_id, event_type, payload, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, event_index) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertEventQ, ev.SessionID, ev.EventIndex, actor, ev.EventType, []byte(payload), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	switch ev.EventType {
	case models.EventSessionStarted:
		q := `
			UPDATE sessions
			SET status = $2, start_time = $3, end_time = NULL, winner_id = NULL
			WHERE id = $1
		`
		_, err = tx.Exec(ctx, q, ev.SessionID, StatusInProgress, at)
	case models.EventTurnResolved:
		_, err = tx.Exec(ctx, `UPDATE sessions SET turns = turns + 1 WHERE id = $1`, ev.SessionID)
	case models.EventSessionEnded:
		q := `
			UPDATE sessions
			SET status = $2, end_time = $3, winner_id = $4
			WHERE id = $1 AND status = $5
		`
		_, err = tx.Exec(ctx, q, ev.SessionID, StatusCompleted, at, winnerOf(ev), StatusInProgress)
	case models.EventSessionAborted:
		q := `
			UPDATE sessions
			SET status = $2, end_time = $3
			WHERE id = $1 AND status = $4
		`
		_, err = tx.Exec(ctx, q, ev.SessionID, StatusAbandoned, at, StatusInProgress)
	case models.EventSessionClosed:
		q := `
			UPDATE sessions
			SET status = $2, end_time = $3
			WHERE id = $1 AND status = $4
		`
		_, err = tx.Exec(ctx, q, ev.SessionID, StatusClosed, at, StatusInProgress)
	}
	return err
}

func eventTime(ev models.SessionEvent) time.Time {
	if ev.Timestamp <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ev.Timestamp).UTC()
}

// winnerOf extracts the winner from a session_ended payload. A missing or
// unparsable winner yields nil so the column stays NULL.
func winnerOf(ev models.SessionEvent) *uuid.UUID {
	var payload struct {
		Winner uuid.UUID `json:"winner"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.Winner == uuid.Nil {
		return nil
	}
	return &payload.Winner
}
