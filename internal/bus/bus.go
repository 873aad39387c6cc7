// Package bus carries capture-session signals between the coordinator and capture workers.
//
// Delivery is at-least-once and unordered across sessions. Every event carries its
// session id so receivers can discard stale or duplicate signals.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yoockh/yoosight/internal/models"
)

// Bus publishes and fans out capture events.
type Bus interface {
	Publish(ctx context.Context, ev models.Event) error
	// Subscribe returns a channel closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan models.Event, error)
	Close() error
}

var ErrClosed = errors.New("bus: closed")

// Validate rejects events that a receiver could not attribute to a session.
func Validate(ev models.Event) error {
	if ev.SessionID == "" {
		return errors.New("bus: event without session_id")
	}
	switch ev.Type {
	case models.EventPermissionResult, models.EventCaptureFailed:
	case models.EventFrameReady:
		// an empty path is delivered; the coordinator fails the session on it
	default:
		return fmt.Errorf("bus: unknown event type %q", ev.Type)
	}
	return nil
}

func Encode(ev models.Event) ([]byte, error) {
	if err := Validate(ev); err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

func Decode(b []byte) (models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return models.Event{}, fmt.Errorf("bus: decode: %w", err)
	}
	if err := Validate(ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}
