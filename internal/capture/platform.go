// Package capture owns the exclusive screen-mirroring resource and turns its first frame
// into a persisted image.
package capture

import (
	"context"
	"sync"
)

// DisplayMetrics describes the mirrored surface.
type DisplayMetrics struct {
	Width   int
	Height  int
	Density int
}

// RawFrame is one RGBA_8888 buffer as produced by the platform. Rows may be padded:
// RowStride can exceed Width*PixelStride.
type RawFrame struct {
	Width       int
	Height      int
	PixelStride int
	RowStride   int
	Pix         []byte
}

// Projector turns a consent grant into a projection handle.
type Projector interface {
	Open(ctx context.Context, grant string) (Projection, error)
}

// Projection is the OS-level mirroring handle.
type Projection interface {
	Metrics() DisplayMetrics
	NewFrameReader(width, height int) (FrameReader, error)
	CreateVirtualDisplay(name string, m DisplayMetrics, reader FrameReader) (VirtualDisplay, error)
	Stop() error
}

// FrameReader is the listener side of the mirrored surface.
// Frames must be closed by Close.
type FrameReader interface {
	Frames() <-chan RawFrame
	Close() error
}

type VirtualDisplay interface {
	Release() error
}

// ChannelFrameReader is a FrameReader backed by a bounded channel. Deliver drops frames
// when the buffer is full or the reader is closed.
type ChannelFrameReader struct {
	mu     sync.Mutex
	ch     chan RawFrame
	closed bool
}

func NewChannelFrameReader(buffer int) *ChannelFrameReader {
	if buffer <= 0 {
		buffer = 2
	}
	return &ChannelFrameReader{ch: make(chan RawFrame, buffer)}
}

func (r *ChannelFrameReader) Frames() <-chan RawFrame { return r.ch }

func (r *ChannelFrameReader) Deliver(f RawFrame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.ch <- f:
		return true
	default:
		return false
	}
}

func (r *ChannelFrameReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	return nil
}
