package overlay

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

const clientBuffer = 32

// Client is one connected overlay. Its writer drains Send until it is closed.
type Client struct {
	id   string
	send chan []byte
	once sync.Once
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send() <-chan []byte { return c.send }

func (c *Client) close() { c.once.Do(func() { close(c.send) }) }

// Hub is the registry of overlay clients. It implements the haptic, speech, label,
// permission and tap sinks by broadcasting commands.
type Hub struct {
	log *logrus.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	speaking atomic.Bool
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{log: log, clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(id string) *Client {
	c := &Client{id: id, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client_id": id, "clients": n}).Info("overlay connected")
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.log.WithFields(logrus.Fields{"client_id": c.id, "clients": n}).Info("overlay disconnected")
	}
	if n == 0 {
		h.speaking.Store(false)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues cmd on every client and returns how many accepted it. A client whose
// buffer is full misses the command.
func (h *Hub) Broadcast(cmd Command) (int, error) {
	b, err := json.Marshal(cmd)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		select {
		case c.send <- b:
			n++
		default:
			h.log.WithFields(logrus.Fields{"client_id": c.id, "type": cmd.Type}).Warn("overlay client slow, command dropped")
		}
	}
	return n, nil
}

func (h *Hub) Haptic(ctx context.Context, effect models.HapticEffect) error {
	_, err := h.Broadcast(Command{Type: CmdHaptic, Effect: effect})
	return err
}

func (h *Hub) Speak(ctx context.Context, text, voice string, rate float64, flush bool) error {
	const op = "Hub.Speak"

	n, err := h.Broadcast(Command{Type: CmdSpeak, Text: text, Voice: voice, Rate: rate, Flush: flush})
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode speech", err)
	}
	if n == 0 {
		return utils.E(utils.CodeSpeechUnavailable, op, "no overlay client to speak", nil)
	}
	h.speaking.Store(true)
	return nil
}

func (h *Hub) Stop(ctx context.Context) error {
	h.speaking.Store(false)
	_, err := h.Broadcast(Command{Type: CmdStopSpeech})
	return err
}

func (h *Hub) Speaking() bool { return h.speaking.Load() }

func (h *Hub) SetSpeaking(v bool) { h.speaking.Store(v) }

func (h *Hub) SetLabel(ctx context.Context, text string) error {
	_, err := h.Broadcast(Command{Type: CmdLabel, Text: text})
	return err
}

func (h *Hub) RequestPermission(ctx context.Context, sessionID string) error {
	const op = "Hub.RequestPermission"

	n, err := h.Broadcast(Command{Type: CmdRequestPermission, SessionID: sessionID})
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode request", err)
	}
	if n == 0 {
		return utils.E(utils.CodeUnavailable, op, "no overlay client connected", nil)
	}
	return nil
}

func (h *Hub) Tap(ctx context.Context, x, y int) error {
	const op = "Hub.Tap"

	n, err := h.Broadcast(Command{Type: CmdTap, X: x, Y: y})
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.E(utils.CodeUnavailable, op, "no overlay client connected", nil)
	}
	return nil
}

// PublishTransition is a coordinator observer mirroring session state to the clients.
func (h *Hub) PublishTransition(t models.Transition) {
	cmd := Command{
		Type:      CmdState,
		SessionID: t.Session.ID,
		State:     t.To,
		From:      t.From,
		Language:  t.Session.LanguageCode,
	}
	if t.To == models.StateFailed {
		cmd.Code = t.Session.FailureCode
		cmd.Message = t.Session.FailureReason
	}
	if _, err := h.Broadcast(cmd); err != nil {
		h.log.WithError(err).Warn("state broadcast failed")
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
