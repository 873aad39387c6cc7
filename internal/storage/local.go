package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yoockh/yoosight/internal/utils"
)

// LocalFrameStore keeps frames in a private, app-scoped directory.
type LocalFrameStore struct {
	dir string
}

func NewLocalFrameStore(dir string) (*LocalFrameStore, error) {
	if dir == "" {
		return nil, errors.New("frame directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &LocalFrameStore{dir: dir}, nil
}

func (s *LocalFrameStore) Dir() string { return s.dir }

func (s *LocalFrameStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	const op = "LocalFrameStore.Save"

	if len(data) == 0 {
		return "", utils.E(utils.CodeCaptureFailed, op, "empty frame", nil)
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	path := filepath.Join(s.dir, "frame_"+uuid.NewString()+"."+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to create frame file", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to write frame file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", utils.E(utils.CodeCaptureFailed, op, "failed to flush frame file", err)
	}
	return path, nil
}

func (s *LocalFrameStore) Load(ctx context.Context, path string) ([]byte, error) {
	const op = "LocalFrameStore.Load"

	if err := s.owns(path); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "frame outside store", err)
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, utils.E(utils.CodeNotFound, op, "frame not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read frame", err)
	}
	return b, nil
}

func (s *LocalFrameStore) Remove(ctx context.Context, path string) error {
	const op = "LocalFrameStore.Remove"

	if err := s.owns(path); err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "frame outside store", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return utils.E(utils.CodeInternal, op, "failed to remove frame", err)
	}
	return nil
}

// owns refuses paths that resolve outside the store directory.
func (s *LocalFrameStore) owns(path string) error {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("%q is not inside %q", path, s.dir)
	}
	return nil
}
