package capture

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/bus"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/storage"
	"github.com/yoockh/yoosight/internal/utils"
)

const publishTimeout = 5 * time.Second

// Service runs one Worker per session in its own goroutine and reports the outcome on the bus.
type Service struct {
	projector Projector
	frames    storage.FrameStore
	events    bus.Bus
	cfg       WorkerConfig
	log       *logrus.Logger
}

func NewService(projector Projector, frames storage.FrameStore, events bus.Bus, cfg WorkerConfig, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{projector: projector, frames: frames, events: events, cfg: cfg, log: log}
}

// Task is a supervised capture run.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the capture; the worker releases its resource before Done closes.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) Done() <-chan struct{} { return t.done }

// Go runs fn as a Task. Done closes after fn returns.
func Go(ctx context.Context, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		fn(ctx)
	}()
	return t
}

// Launch starts capturing for sessionID. The result arrives as a frame_ready or
// capture_failed event; Launch itself never blocks on the platform.
func (s *Service) Launch(ctx context.Context, sessionID, grant string) *Task {
	log := s.log.WithField("session_id", sessionID)
	w := NewWorker(s.projector, s.frames, s.cfg, log)

	return Go(ctx, func(ctx context.Context) {
		path, err := s.run(ctx, w, grant)
		// release precedes the outcome event on every path
		w.Release()

		var ev models.Event
		if err != nil {
			log.WithError(err).Warn("capture failed")
			ev = models.CaptureFailed(sessionID, string(utils.CodeOf(err, utils.CodeCaptureFailed)), utils.MessageOf(err))
		} else {
			ev = models.FrameReady(sessionID, path)
		}

		pubCtx, pubCancel := context.WithTimeout(context.Background(), publishTimeout)
		defer pubCancel()
		if perr := s.events.Publish(pubCtx, ev); perr != nil {
			log.WithError(perr).Error("failed to publish capture outcome")
			if path != "" {
				if rerr := s.frames.Remove(pubCtx, path); rerr != nil {
					log.WithError(rerr).Warn("failed to remove unannounced frame")
				}
			}
		}
	})
}

func (s *Service) run(ctx context.Context, w *Worker, grant string) (string, error) {
	if err := w.Acquire(ctx, grant); err != nil {
		return "", err
	}
	return w.CaptureFrame(ctx)
}
