// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue serves queued payloads to BLPop and reports redis.Nil when empty.
type fakeQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *fakeQueue) push(t *testing.T, ev models.SessionEvent) {
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, string(data))
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		time.Sleep(time.Millisecond)
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	item := q.items[0]
	q.items = q.items[1:]
	return redis.NewStringSliceResult([]string{keys[0], item}, nil)
}

// fakeStore records batches and abandoned marks.
type fakeStore struct {
	mu        sync.Mutex
	batches   [][]models.SessionEvent
	abandoned []uuid.UUID
}

func (s *fakeStore) InsertSessionEvents(ctx context.Context, events []models.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, events)
	return nil
}

func (s *fakeStore) MarkSessionAbandoned(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = append(s.abandoned, sessionID)
	return true, nil
}

func (s *fakeStore) events() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func event(sessionID uuid.UUID, idx int, kind string) models.SessionEvent {
	return models.SessionEvent{
		SessionID:  sessionID,
		EventIndex: idx,
		EventType:  kind,
		Payload:    json.RawMessage(`{}`),
		Timestamp:  time.Now().UnixMilli(),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.FlushInterval = time.Hour
	cfg.InactivityCheck = time.Hour
	cfg.Inactivity = time.Minute
	return cfg
}

func TestBatchFlushesWhenFull(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &fakeStore{}
	svc := New(&fakeQueue{}, store, testConfig(), logger)
	ctx := context.Background()
	sid := uuid.New()

	svc.handlePayload(ctx, mustJSON(t, event(sid, 1, models.EventSessionStarted)))
	assert.Equal(t, 0, store.events())

	svc.handlePayload(ctx, mustJSON(t, event(sid, 2, models.EventTurnResolved)))
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 2)

	svc.handlePayload(ctx, "{garbage")
	svc.Flush(ctx)
	assert.Equal(t, 2, store.events(), "undecodable payloads are skipped")
}

func TestSweepMarksIdleSessions(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &fakeStore{}
	svc := New(&fakeQueue{}, store, testConfig(), logger)
	ctx := context.Background()

	idle, ended, aborted := uuid.New(), uuid.New(), uuid.New()
	svc.handlePayload(ctx, mustJSON(t, event(idle, 1, models.EventSessionStarted)))
	svc.handlePayload(ctx, mustJSON(t, event(ended, 1, models.EventSessionStarted)))
	svc.handlePayload(ctx, mustJSON(t, event(ended, 2, models.EventSessionEnded)))
	svc.handlePayload(ctx, mustJSON(t, event(aborted, 1, models.EventSessionStarted)))
	svc.handlePayload(ctx, mustJSON(t, event(aborted, 2, models.EventSessionAborted)))

	svc.sweepInactive(ctx, time.Now())
	assert.Empty(t, store.abandoned, "nothing is idle yet")

	svc.sweepInactive(ctx, time.Now().Add(2*time.Minute))
	assert.Equal(t, []uuid.UUID{idle}, store.abandoned)

	svc.sweepInactive(ctx, time.Now().Add(4*time.Minute))
	assert.Len(t, store.abandoned, 1, "a session is only marked once")
}

func TestRunDrainsQueueAndFlushesOnStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &fakeStore{}
	queue := &fakeQueue{}
	cfg := testConfig()
	cfg.BatchSize = 10
	svc := New(queue, store, cfg, logger)

	sid := uuid.New()
	for i := 1; i <= 3; i++ {
		queue.push(t, event(sid, i, models.EventTurnResolved))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		queue.mu.Lock()
		defer queue.mu.Unlock()
		return len(queue.items) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 3, store.events())
}

func mustJSON(t *testing.T, ev models.SessionEvent) string {
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return string(data)
}
