package storage

import (
	"context"
	"io"
)

// FrameStore persists captured frames. Save is write-once; Remove tolerates missing files.
type FrameStore interface {
	Save(ctx context.Context, data []byte, ext string) (path string, err error)
	Load(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
