package bus

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/models"
)

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// RedisBus carries events over Redis Pub/Sub so capture workers can run in another process.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *logrus.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, log *logrus.Logger) *RedisBus {
	if channel == "" {
		channel = "yoosight:events"
	}
	if log == nil {
		log = logrus.New()
	}
	return &RedisBus{rdb: rdb, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ev models.Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	// wait for the subscription confirmation so no publish after return is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	// a blocked receive does not watch ctx; closing the pubsub unblocks it
	stop := context.AfterFunc(ctx, func() { _ = pubsub.Close() })

	out := make(chan models.Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		defer stop()

		backoff := minBackoff
		for {
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// go-redis redials and resubscribes on the next receive
				b.log.WithError(err).WithField("retry_in", backoff).Warn("redis bus receive failed")
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			backoff = minBackoff
			ev, err := Decode([]byte(m.Payload))
			if err != nil {
				b.log.WithError(err).Warn("redis bus: malformed event dropped")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the redis client is owned by the caller.
func (b *RedisBus) Close() error { return nil }
