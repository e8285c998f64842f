// Package historian pops session events from the Redis queue and persists
// them to PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Queue is the slice of the Redis API the historian reads from.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Store is where batches end up.
type Store interface {
	InsertSessionEvents(ctx context.Context, events []models.SessionEvent) error
	MarkSessionAbandoned(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// Config tunes batching and the abandoned-session sweep.
type Config struct {
	QueueName       string
	BatchSize       int
	FlushInterval   time.Duration
	PopTimeout      time.Duration
	Inactivity      time.Duration
	InactivityCheck time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		QueueName:       "gpcards_session_events",
		BatchSize:       20,
		FlushInterval:   500 * time.Millisecond,
		PopTimeout:      3 * time.Second,
		Inactivity:      10 * time.Minute,
		InactivityCheck: time.Minute,
	}
}

// Service encapsulates the Redis + DB logic for capturing session events
// and marking sessions abandoned when they go quiet.
type Service struct {
	queue  Queue
	store  Store
	cfg    Config
	logger *logrus.Logger

	// lastActivity maps session ID to the time its last event was popped.
	lastActivity sync.Map

	batchMu sync.Mutex
	batch   []models.SessionEvent
}

func New(queue Queue, store Store, cfg Config, logger *logrus.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Service{
		queue:  queue,
		store:  store,
		cfg:    cfg,
		logger: logger,
		batch:  make([]models.SessionEvent, 0, cfg.BatchSize),
	}
}

// Run reads the queue and sweeps inactive sessions until ctx is done. The
// pending batch is flushed before Run returns.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.WithField("queue", s.cfg.QueueName).Info("historian started")
	s.readLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
}

// readLoop blocks on BLPop with a timeout so that cancellation is noticed.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.queue.BLPop(ctx, s.cfg.PopTimeout, s.cfg.QueueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.logger.Errorf("BLPop: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		s.handlePayload(ctx, res[1])
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.InactivityCheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepInactive(ctx, now)
		}
	}
}

// handlePayload decodes one queue entry and adds it to the batch.
func (s *Service) handlePayload(ctx context.Context, payload string) {
	var ev models.SessionEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Warnf("invalid session event: %v", err)
		return
	}

	switch ev.EventType {
	case models.EventSessionEnded, models.EventSessionAborted, models.EventSessionClosed:
		s.lastActivity.Delete(ev.SessionID)
	default:
		s.lastActivity.Store(ev.SessionID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, ev)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch in a single transaction. A failed batch is
// logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := make([]models.SessionEvent, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.store.InsertSessionEvents(ctx, batch); err != nil {
		s.logger.Errorf("flush of %d session events failed: %v", len(batch), err)
		return
	}
	s.logger.Debugf("Flushed %d session events to DB.", len(batch))
}

// sweepInactive marks every session idle for longer than cfg.Inactivity as abandoned.
func (s *Service) sweepInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		sessionID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		changed, err := s.store.MarkSessionAbandoned(ctx, sessionID)
		if err != nil {
			s.logger.Warnf("failed to mark session %v abandoned: %v", sessionID, err)
			return true
		}
		s.lastActivity.Delete(sessionID)
		if changed {
			s.logger.Infof("Marked session %v as abandoned due to inactivity.", sessionID)
		}
		return true
	})
}
