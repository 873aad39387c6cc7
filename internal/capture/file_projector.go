package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"

	"github.com/yoockh/yoosight/internal/utils"
)

// FileProjector mirrors a still image file. It stands in for the OS projection on desktops
// and in demos, and pads rows the way hardware buffers do.
type FileProjector struct {
	Path      string
	RowAlign  int
	Density   int
	MaxImages int
}

func (p *FileProjector) Open(ctx context.Context, grant string) (Projection, error) {
	const op = "FileProjector.Open"

	if grant == "" {
		return nil, utils.E(utils.CodePermissionDenied, op, "grant rejected", nil)
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, utils.E(utils.CodeResourceAcquisition, op, "capture source unavailable", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, utils.E(utils.CodeResourceAcquisition, op, "capture source unreadable", err)
	}
	rgba := image.NewRGBA(src.Bounds().Sub(src.Bounds().Min))
	draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Src)

	align := p.RowAlign
	if align <= 0 {
		align = 64
	}
	density := p.Density
	if density <= 0 {
		density = 160
	}
	return &fileProjection{img: rgba, align: align, density: density, maxImages: p.MaxImages}, nil
}

type fileProjection struct {
	img       *image.RGBA
	align     int
	density   int
	maxImages int

	mu      sync.Mutex
	stopped bool
}

func (p *fileProjection) Metrics() DisplayMetrics {
	b := p.img.Bounds()
	return DisplayMetrics{Width: b.Dx(), Height: b.Dy(), Density: p.density}
}

func (p *fileProjection) NewFrameReader(width, height int) (FrameReader, error) {
	b := p.img.Bounds()
	if width != b.Dx() || height != b.Dy() {
		return nil, fmt.Errorf("reader size %dx%d does not match display %dx%d", width, height, b.Dx(), b.Dy())
	}
	return NewChannelFrameReader(p.maxImages), nil
}

func (p *fileProjection) CreateVirtualDisplay(name string, m DisplayMetrics, reader FrameReader) (VirtualDisplay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil, fmt.Errorf("projection stopped")
	}
	sink, ok := reader.(*ChannelFrameReader)
	if !ok {
		return nil, fmt.Errorf("unsupported frame reader %T", reader)
	}

	frame := p.paddedFrame()
	go sink.Deliver(frame)
	return &fileDisplay{}, nil
}

func (p *fileProjection) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

func (p *fileProjection) paddedFrame() RawFrame {
	b := p.img.Bounds()
	rowBytes := b.Dx() * 4
	stride := (rowBytes + p.align - 1) / p.align * p.align
	pix := make([]byte, stride*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*stride:y*stride+rowBytes], p.img.Pix[y*p.img.Stride:])
	}
	return RawFrame{Width: b.Dx(), Height: b.Dy(), PixelStride: 4, RowStride: stride, Pix: pix}
}

type fileDisplay struct{}

func (fileDisplay) Release() error { return nil }
