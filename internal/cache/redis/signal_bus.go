package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Qhawe-ma/predd/internal/domain"
)

const (
	// streamMaxLen caps stream length via XADD MAXLEN ~. Old trade events
	// past the cap are trimmed by Redis itself.
	streamMaxLen int64 = 10000

	// subBuffer is the delivery buffer per subscription. A full buffer
	// applies backpressure to the forwarding goroutine, not to Redis.
	subBuffer = 128

	// payloadField is the single stream field carrying the raw event bytes.
	payloadField = "payload"
)

// SignalBus implements domain.SignalBus on Redis: Pub/Sub for live fan-out of
// market and trade events, Streams for the replayable trade history.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (b *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription on channel and returns a read-only
// payload channel. Glob wildcards in channel select pattern subscription.
// Cancelling ctx tears the subscription down and closes the returned channel.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	subscribe := b.rdb.Subscribe
	if strings.ContainsAny(channel, "*?[") {
		subscribe = b.rdb.PSubscribe
	}
	pubsub := subscribe(ctx, channel)

	// Receive the confirmation so a broken subscription fails here, not on
	// first read.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subBuffer)
	go forward(ctx, pubsub, out)
	return out, nil
}

// forward copies Pub/Sub messages into out until ctx ends or the upstream
// channel closes, then closes both sides.
func forward(ctx context.Context, pubsub *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer pubsub.Close()

	msgs := pubsub.Channel()
	for {
		var msg *redis.Message
		var ok bool
		select {
		case <-ctx.Done():
			return
		case msg, ok = <-msgs:
			if !ok {
				return
			}
		}

		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

// StreamAppend appends a payload to a Redis stream, trimming to roughly
// streamMaxLen entries.
func (b *SignalBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	err := b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

// StreamRead reads up to count messages from a stream after lastID. Pass "0"
// or "0-0" to read from the beginning, "$" for new messages only. An empty
// stream yields a nil slice, not an error.
func (b *SignalBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range results {
		for _, msg := range s.Messages {
			data, ok := payloadBytes(msg.Values[payloadField])
			if !ok {
				continue
			}
			messages = append(messages, domain.StreamMessage{ID: msg.ID, Payload: data})
		}
	}
	return messages, nil
}

// payloadBytes coerces a stream field value into raw bytes. Redis hands
// strings back for values written as bytes.
func payloadBytes(v interface{}) ([]byte, bool) {
	switch p := v.(type) {
	case string:
		return []byte(p), true
	case []byte:
		return p, true
	default:
		return nil, false
	}
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
