// Package queue provides the ticket notification queue backed by a Redis
// stream and consumer group. The semantics mirror a visibility-timeout
// queue: Receive blocks up to a wait time for new entries, Delete
// acknowledges and removes an entry, and entries that stay pending longer
// than the visibility timeout are reclaimed on a later Receive so a crashed
// consumer's messages are redelivered.
package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
	"github.com/supporthq/ticket-enrichment-platform/pkg/resilience"
)

const bodyField = "body"

// Message is one received queue entry. ID is the stream entry id and doubles
// as the receipt handle for Delete.
type Message struct {
	ID   string
	Body []byte
}

// Queue is a Redis-stream-backed notification queue client.
type Queue struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	minIdle  time.Duration
}

// New connects to Redis, verifies the connection, and ensures the consumer
// group exists. An unreachable queue is a startup-fatal condition and is
// reported as ErrQueueUnavailable after the connection retry budget is
// exhausted.
func New(ctx context.Context, cfg config.QueueConfig) (*Queue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := resilience.Retry(ctx, "queue-connect", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrQueueUnavailable, "pinging %s: %v", cfg.Addr, err)
	}

	// Idempotent group bootstrap; BUSYGROUP means another worker won.
	if err := rdb.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrQueueUnavailable, "creating group %s on %s: %v", cfg.Group, cfg.Stream, err)
	}

	return &Queue{
		rdb:      rdb,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		minIdle:  cfg.VisibilityTimeout,
	}, nil
}

// Publish appends a notification body to the stream.
func (q *Queue) Publish(ctx context.Context, body []byte) error {
	err := q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{bodyField: body},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to stream %s: %w", q.stream, err)
	}
	return nil
}

// Receive returns up to max messages. It first reclaims entries another
// consumer left pending beyond the visibility timeout, then long-polls the
// stream for up to wait. An empty slice means the wait elapsed with no
// messages.
func (q *Queue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}

	reclaimed, _, err := q.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumer,
		MinIdle:  q.minIdle,
		Start:    "0-0",
		Count:    int64(max),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reclaiming pending entries: %w", err)
	}

	messages := decode(reclaimed)
	if len(messages) >= max {
		return messages[:max], nil
	}

	streams, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    int64(max - len(messages)),
		Block:    wait,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			// Wait elapsed with no new entries.
			return messages, nil
		}
		return messages, fmt.Errorf("reading from stream %s: %w", q.stream, err)
	}
	for _, s := range streams {
		messages = append(messages, decode(s.Messages)...)
	}
	return messages, nil
}

// Delete acknowledges a message and removes it from the stream. A message
// that is never deleted stays pending and is redelivered once its idle time
// exceeds the visibility timeout.
func (q *Queue) Delete(ctx context.Context, msg Message) error {
	if err := q.rdb.XAck(ctx, q.stream, q.group, msg.ID).Err(); err != nil {
		return fmt.Errorf("acking message %s: %w", msg.ID, err)
	}
	if err := q.rdb.XDel(ctx, q.stream, msg.ID).Err(); err != nil {
		return fmt.Errorf("deleting message %s: %w", msg.ID, err)
	}
	return nil
}

// Ping checks queue reachability, used by health probes.
func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (q *Queue) Close() error {
	return q.rdb.Close()
}

func decode(entries []redis.XMessage) []Message {
	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		var body []byte
		if raw, ok := entry.Values[bodyField]; ok {
			if s, ok := raw.(string); ok {
				body = []byte(s)
			}
		}
		messages = append(messages, Message{ID: entry.ID, Body: body})
	}
	return messages
}
