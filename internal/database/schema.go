// internal/database/schema.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         UUID PRIMARY KEY,
		status     TEXT NOT NULL DEFAULT 'in_progress',
		turns      INTEGER NOT NULL DEFAULT 0,
		winner_id  UUID,
		start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		session_id  UUID NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
		event_index INTEGER NOT NULL,
		actor_id    UUID,
		event_type  TEXT NOT NULL,
		payload     JSONB NOT NULL DEFAULT '{}'::jsonb,
		occurred_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (session_id, event_index)
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_status_idx ON sessions (status)`,
}

// EnsureSchema creates the historian tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
