package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// ToRGBA copies a raw frame into a tightly packed image, dropping per-row padding.
func ToRGBA(f RawFrame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if f.PixelStride != 4 {
		return nil, fmt.Errorf("unsupported pixel stride %d (want 4)", f.PixelStride)
	}
	rowBytes := f.Width * f.PixelStride
	if f.RowStride < rowBytes {
		return nil, fmt.Errorf("row stride %d shorter than row %d", f.RowStride, rowBytes)
	}
	need := (f.Height-1)*f.RowStride + rowBytes
	if len(f.Pix) < need {
		return nil, fmt.Errorf("short frame buffer: %d bytes, need %d", len(f.Pix), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if f.RowStride == rowBytes {
		copy(img.Pix, f.Pix[:rowBytes*f.Height])
		return img, nil
	}
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.RowStride : y*f.RowStride+rowBytes]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img, nil
}

// ScaledSize fits w x h so the longer edge is at most maxEdge, keeping the aspect ratio.
// Sizes already within the bound are returned unchanged.
func ScaledSize(w, h, maxEdge int) (int, int) {
	if maxEdge <= 0 || max(w, h) <= maxEdge {
		return w, h
	}
	if w >= h {
		return maxEdge, max(1, int(math.Round(float64(h)*float64(maxEdge)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(maxEdge)/float64(h)))), maxEdge
}

// Downsample returns img itself when no scaling is needed.
func Downsample(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	nw, nh := ScaledSize(b.Dx(), b.Dy(), maxEdge)
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
