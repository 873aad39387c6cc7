package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/storage"
	"github.com/yoockh/yoosight/internal/utils"
)

// ResourceState is the mirroring resource lifecycle. Released is final.
type ResourceState int

const (
	Unacquired ResourceState = iota
	Acquired
	Released
)

func (s ResourceState) String() string {
	switch s {
	case Unacquired:
		return "unacquired"
	case Acquired:
		return "acquired"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

type WorkerConfig struct {
	MaxEdge     int
	JPEGQuality int
	DisplayName string
}

// Worker holds one mirroring resource for exactly one frame.
type Worker struct {
	projector Projector
	frames    storage.FrameStore
	cfg       WorkerConfig
	log       *logrus.Entry

	mu         sync.Mutex
	state      ResourceState
	projection Projection
	reader     FrameReader
	display    VirtualDisplay
}

func NewWorker(projector Projector, frames storage.FrameStore, cfg WorkerConfig, log *logrus.Entry) *Worker {
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = 1920
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "ScreenCapture"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Worker{projector: projector, frames: frames, cfg: cfg, log: log}
}

func (w *Worker) State() ResourceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Acquire opens the projection and wires the virtual display to a frame reader.
// Any partial setup is torn down on failure.
func (w *Worker) Acquire(ctx context.Context, grant string) error {
	const op = "Worker.Acquire"

	if grant == "" {
		return utils.E(utils.CodePermissionDenied, op, "missing permission grant", nil)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Acquired:
		return utils.E(utils.CodeResourceAcquisition, op, "mirroring resource already acquired", nil)
	case Released:
		return utils.E(utils.CodeResourceAcquisition, op, "mirroring resource already released", nil)
	}

	projection, err := w.projector.Open(ctx, grant)
	if err != nil {
		if utils.IsCode(err, utils.CodePermissionDenied) {
			return err
		}
		return utils.E(utils.CodeResourceAcquisition, op, "failed to open projection", err)
	}
	w.projection = projection
	w.state = Acquired

	m := projection.Metrics()
	reader, err := projection.NewFrameReader(m.Width, m.Height)
	if err != nil {
		w.releaseLocked()
		return utils.E(utils.CodeResourceAcquisition, op, "failed to create frame reader", err)
	}
	w.reader = reader

	display, err := projection.CreateVirtualDisplay(w.cfg.DisplayName, m, reader)
	if err != nil {
		w.releaseLocked()
		return utils.E(utils.CodeResourceAcquisition, op, "failed to create virtual display", err)
	}
	w.display = display

	w.log.WithFields(logrus.Fields{
		"width":  m.Width,
		"height": m.Height,
	}).Info("mirroring resource acquired")
	return nil
}

// CaptureFrame waits for the first frame, releases the resource, and persists the frame.
// Later frames are never read.
func (w *Worker) CaptureFrame(ctx context.Context) (string, error) {
	const op = "Worker.CaptureFrame"

	w.mu.Lock()
	if w.state != Acquired {
		w.mu.Unlock()
		return "", utils.E(utils.CodeCaptureFailed, op, "mirroring resource not acquired", nil)
	}
	frames := w.reader.Frames()
	w.mu.Unlock()

	var raw RawFrame
	select {
	case f, ok := <-frames:
		if !ok {
			w.Release()
			return "", utils.E(utils.CodeCaptureFailed, op, "frame source stopped before first frame", nil)
		}
		raw = f
	case <-ctx.Done():
		w.Release()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", utils.E(utils.CodeTimeout, op, "no frame before deadline", ctx.Err())
		}
		return "", utils.E(utils.CodeCaptureFailed, op, "capture cancelled", ctx.Err())
	}
	w.Release()

	img, err := ToRGBA(raw)
	if err != nil {
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to convert frame", err)
	}
	scaled := Downsample(img, w.cfg.MaxEdge)
	data, err := EncodeJPEG(scaled, w.cfg.JPEGQuality)
	if err != nil {
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to encode frame", err)
	}
	path, err := w.frames.Save(ctx, data, "jpg")
	if err != nil {
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to persist frame", err)
	}

	b := scaled.Bounds()
	w.log.WithFields(logrus.Fields{
		"src":  [2]int{raw.Width, raw.Height},
		"dst":  [2]int{b.Dx(), b.Dy()},
		"size": len(data),
	}).Info("frame captured")
	return path, nil
}

// Release tears down listener, virtual display, then projection. It is idempotent and
// also valid before Acquire, after which Acquire is refused.
func (w *Worker) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseLocked()
}

func (w *Worker) releaseLocked() {
	if w.state == Released {
		return
	}
	wasAcquired := w.state == Acquired
	w.state = Released

	if w.reader != nil {
		if err := w.reader.Close(); err != nil {
			w.log.WithError(err).Warn("frame reader close failed")
		}
		w.reader = nil
	}
	if w.display != nil {
		if err := w.display.Release(); err != nil {
			w.log.WithError(err).Warn("virtual display release failed")
		}
		w.display = nil
	}
	if w.projection != nil {
		if err := w.projection.Stop(); err != nil {
			w.log.WithError(err).Warn("projection stop failed")
		}
		w.projection = nil
	}
	if wasAcquired {
		w.log.Info("mirroring resource released")
	}
}
