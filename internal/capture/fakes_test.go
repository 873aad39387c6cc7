package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/yoockh/yoosight/internal/utils"
)

type teardownLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *teardownLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, s)
}

func (l *teardownLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.steps...)
}

type fakeProjector struct {
	log        *teardownLog
	openErr    error
	readerErr  error
	displayErr error
	metrics    DisplayMetrics
	frames     []RawFrame
	closeEarly bool

	mu     sync.Mutex
	opened int
	reader *ChannelFrameReader
}

func (p *fakeProjector) Open(ctx context.Context, grant string) (Projection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened++
	if p.openErr != nil {
		return nil, p.openErr
	}
	return &fakeProjection{p: p}, nil
}

func (p *fakeProjector) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

type fakeProjection struct{ p *fakeProjector }

func (f *fakeProjection) Metrics() DisplayMetrics { return f.p.metrics }

func (f *fakeProjection) NewFrameReader(w, h int) (FrameReader, error) {
	if f.p.readerErr != nil {
		return nil, f.p.readerErr
	}
	r := NewChannelFrameReader(len(f.p.frames) + 1)
	f.p.mu.Lock()
	f.p.reader = r
	f.p.mu.Unlock()
	return &loggingReader{ChannelFrameReader: r, log: f.p.log}, nil
}

func (f *fakeProjection) CreateVirtualDisplay(name string, m DisplayMetrics, reader FrameReader) (VirtualDisplay, error) {
	if f.p.displayErr != nil {
		return nil, f.p.displayErr
	}
	r := reader.(*loggingReader)
	for _, fr := range f.p.frames {
		r.Deliver(fr)
	}
	if f.p.closeEarly {
		r.ChannelFrameReader.Close()
	}
	return &fakeDisplay{log: f.p.log}, nil
}

func (f *fakeProjection) Stop() error {
	f.p.log.add("projection")
	return nil
}

type loggingReader struct {
	*ChannelFrameReader
	log *teardownLog
}

func (r *loggingReader) Close() error {
	r.log.add("reader")
	return r.ChannelFrameReader.Close()
}

type fakeDisplay struct{ log *teardownLog }

func (d *fakeDisplay) Release() error {
	d.log.add("display")
	return errors.New("already gone")
}

// memFrames is an in-memory FrameStore.
type memFrames struct {
	mu      sync.Mutex
	next    int
	data    map[string][]byte
	removed []string
	saveErr error
}

func newMemFrames() *memFrames { return &memFrames{data: map[string][]byte{}} }

func (m *memFrames) Save(ctx context.Context, data []byte, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.next++
	p := "/frames/" + string(rune('a'+m.next)) + "." + ext
	m.data[p] = append([]byte(nil), data...)
	return p, nil
}

func (m *memFrames) Load(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "memFrames.Load", "frame not found", nil)
	}
	return d, nil
}

func (m *memFrames) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, path)
	m.removed = append(m.removed, path)
	return nil
}

func (m *memFrames) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func solidFrame(w, h, stride int, c [4]byte) RawFrame {
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(pix[y*stride+x*4:], c[:])
		}
		for i := y*stride + w*4; i < (y+1)*stride; i++ {
			pix[i] = 0xEE
		}
	}
	return RawFrame{Width: w, Height: h, PixelStride: 4, RowStride: stride, Pix: pix}
}
