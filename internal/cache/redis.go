// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list the historian consumes session events from.
const DefaultQueueName = "gpcards_session_events"

// Connect opens a Redis client and checks it answers a PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Lister is the slice of the Redis API the publisher needs.
type Lister interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Publisher pushes session events onto the historian queue. Sessions hand
// events over through PublishSessionEvent, which never blocks; a single
// background loop started by Run does the network writes.
type Publisher struct {
	rdb    Lister
	queue  string
	logger *logrus.Logger
	events chan models.SessionEvent
}

// NewPublisher buffers up to buffer events between sessions and Redis.
func NewPublisher(rdb Lister, queue string, buffer int, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{
		rdb:    rdb,
		queue:  queue,
		logger: logger,
		events: make(chan models.SessionEvent, buffer),
	}
}

// PublishSessionEvent queues ev for the background loop. A full buffer drops the event.
func (p *Publisher) PublishSessionEvent(ev models.SessionEvent) {
	select {
	case p.events <- ev:
	default:
		p.logger.WithFields(logrus.Fields{
			"session": ev.SessionID,
			"event":   ev.EventType,
		}).Warn("Historian queue buffer full, dropping session event")
	}
}

// Run pushes queued events until ctx is done, then drains what is left.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case ev := <-p.events:
			p.push(ctx, ev)
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-p.events:
			p.push(ctx, ev)
		default:
			return
		}
	}
}

func (p *Publisher) push(ctx context.Context, ev models.SessionEvent) {
	if err := p.Push(ctx, ev); err != nil {
		p.logger.WithFields(logrus.Fields{
			"session": ev.SessionID,
			"event":   ev.EventType,
		}).Warnf("Failed to publish session event: %v", err)
	}
}

// Push serializes ev to JSON and RPushes it onto the queue.
func (p *Publisher) Push(ctx context.Context, ev models.SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionEvent: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
