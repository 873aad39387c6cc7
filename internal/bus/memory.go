package bus

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/models"
)

const subscriberBuffer = 32

// MemoryBus fans events out to in-process subscribers. A full subscriber drops the event.
type MemoryBus struct {
	log *logrus.Logger

	mu     sync.Mutex
	subs   map[chan models.Event]struct{}
	closed bool
}

func NewMemoryBus(log *logrus.Logger) *MemoryBus {
	if log == nil {
		log = logrus.New()
	}
	return &MemoryBus{log: log, subs: make(map[chan models.Event]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, ev models.Event) error {
	if err := Validate(ev); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.WithFields(logrus.Fields{
				"session_id": ev.SessionID,
				"type":       ev.Type,
			}).Warn("bus subscriber full, event dropped")
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan models.Event, subscriberBuffer)
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()
	return ch, nil
}

func (b *MemoryBus) remove(ch chan models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}
