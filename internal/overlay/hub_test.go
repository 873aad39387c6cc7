package overlay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/yoockh/yoosight/internal/logger"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

func recv(t *testing.T, c *Client) Command {
	t.Helper()
	select {
	case b, ok := <-c.Send():
		if !ok {
			t.Fatal("client channel closed")
		}
		var cmd Command
		if err := json.Unmarshal(b, &cmd); err != nil {
			t.Fatalf("bad command %s: %v", b, err)
		}
		return cmd
	case <-time.After(time.Second):
		t.Fatal("no command delivered")
		return Command{}
	}
}

func TestHubWithoutClients(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx := context.Background()

	if err := h.Speak(ctx, "hello", "eng_GBR_default", 1, true); !utils.IsCode(err, utils.CodeSpeechUnavailable) {
		t.Fatalf("speak: %v", err)
	}
	if h.Speaking() {
		t.Fatalf("nothing is speaking")
	}
	if err := h.RequestPermission(ctx, "s-1"); !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("permission: %v", err)
	}
	if err := h.Haptic(ctx, models.HapticTick); err != nil {
		t.Fatalf("haptics are fire-and-forget: %v", err)
	}
}

func TestHubBroadcastsSinks(t *testing.T) {
	h := NewHub(logger.Discard())
	a := h.Register("a")
	b := h.Register("b")
	ctx := context.Background()

	if err := h.Speak(ctx, "The screen shows...", "eng_GBR_default", 1.25, true); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*Client{a, b} {
		cmd := recv(t, c)
		if cmd.Type != CmdSpeak || cmd.Text != "The screen shows..." || cmd.Rate != 1.25 || !cmd.Flush {
			t.Fatalf("client %s got %+v", c.ID(), cmd)
		}
	}
	if !h.Speaking() {
		t.Fatalf("hub should assume speech started")
	}

	if err := h.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if cmd := recv(t, a); cmd.Type != CmdStopSpeech {
		t.Fatalf("got %+v", cmd)
	}
	if h.Speaking() {
		t.Fatalf("stop should clear speaking")
	}

	if err := h.Tap(ctx, 880, 2280); err != nil {
		t.Fatal(err)
	}
	if cmd := recv(t, a); cmd.Type != CmdTap || cmd.X != 880 || cmd.Y != 2280 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestHubPublishesFailedTransition(t *testing.T) {
	h := NewHub(logger.Discard())
	c := h.Register("a")

	h.PublishTransition(models.Transition{
		From: models.StateAnalyzing,
		To:   models.StateFailed,
		Session: models.CaptureSession{
			ID:            "s-1",
			LanguageCode:  "EN",
			FailureCode:   string(utils.CodeAnalysisFailed),
			FailureReason: "model stream failed",
		},
	})
	cmd := recv(t, c)
	if cmd.Type != CmdState || cmd.State != models.StateFailed || cmd.From != models.StateAnalyzing {
		t.Fatalf("got %+v", cmd)
	}
	if cmd.Code != string(utils.CodeAnalysisFailed) || cmd.SessionID != "s-1" {
		t.Fatalf("failure not forwarded: %+v", cmd)
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	h := NewHub(logger.Discard())
	c := h.Register("slow")

	for i := 0; i < clientBuffer; i++ {
		if n, _ := h.Broadcast(Command{Type: CmdHaptic}); n != 1 {
			t.Fatalf("send %d should be accepted", i)
		}
	}
	if n, _ := h.Broadcast(Command{Type: CmdHaptic}); n != 0 {
		t.Fatalf("full client should not block or accept")
	}

	h.Unregister(c)
	h.Unregister(c)
	drained := 0
	for range c.Send() {
		drained++
	}
	if drained != clientBuffer {
		t.Fatalf("drained %d", drained)
	}
	if h.Count() != 0 {
		t.Fatalf("count %d", h.Count())
	}
}
