package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnerOf(t *testing.T) {
	winner := uuid.New()
	ev := models.SessionEvent{Payload: json.RawMessage(`{"winner":"` + winner.String() + `","turns":7}`)}
	got := winnerOf(ev)
	require.NotNil(t, got)
	assert.Equal(t, winner, *got)

	assert.Nil(t, winnerOf(models.SessionEvent{Payload: json.RawMessage(`{"turns":7}`)}))
	assert.Nil(t, winnerOf(models.SessionEvent{}))
}

func TestEventTime(t *testing.T) {
	ms := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, ms, eventTime(models.SessionEvent{Timestamp: ms}).UnixMilli())
	assert.WithinDuration(t, time.Now(), eventTime(models.SessionEvent{}), time.Minute)
}

// TestStoreAgainstPostgres needs a disposable database in GPCARDS_TEST_DATABASE_URL.
func TestStoreAgainstPostgres(t *testing.T) {
	url := os.Getenv("GPCARDS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GPCARDS_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, EnsureSchema(ctx, pool))

	store := NewStore(pool)
	sid, winner := uuid.New(), uuid.New()
	now := time.Now().UnixMilli()
	events := []models.SessionEvent{
		{SessionID: sid, EventIndex: 1, ActorID: winner, EventType: models.EventSessionStarted, Payload: json.RawMessage(`{}`), Timestamp: now},
		{SessionID: sid, EventIndex: 2, ActorID: winner, EventType: models.EventTurnResolved, Payload: json.RawMessage(`{}`), Timestamp: now},
		{SessionID: sid, EventIndex: 3, ActorID: winner, EventType: models.EventSessionEnded, Payload: json.RawMessage(`{"winner":"` + winner.String() + `"}`), Timestamp: now},
	}
	require.NoError(t, store.InsertSessionEvents(ctx, events))
	require.NoError(t, store.InsertSessionEvents(ctx, events), "replays are ignored")

	var status string
	var turns int
	require.NoError(t, pool.QueryRow(ctx, `SELECT status, turns FROM sessions WHERE id = $1`, sid).Scan(&status, &turns))
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, 1, turns)

	changed, err := store.MarkSessionAbandoned(ctx, sid)
	require.NoError(t, err)
	assert.False(t, changed, "completed sessions are not abandoned")

	aborted := uuid.New()
	require.NoError(t, store.InsertSessionEvents(ctx, []models.SessionEvent{
		{SessionID: aborted, EventIndex: 1, EventType: models.EventSessionStarted, Payload: json.RawMessage(`{}`), Timestamp: now},
		{SessionID: aborted, EventIndex: 2, EventType: models.EventSessionAborted, Payload: json.RawMessage(`{}`), Timestamp: now},
	}))
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, aborted).Scan(&status))
	assert.Equal(t, StatusAbandoned, status)

	require.NoError(t, store.InsertSessionEvents(ctx, []models.SessionEvent{
		{SessionID: aborted, EventIndex: 3, EventType: models.EventSessionStarted, Payload: json.RawMessage(`{}`), Timestamp: now},
	}))
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, aborted).Scan(&status))
	assert.Equal(t, StatusInProgress, status, "a restarted game is in progress again")
}
