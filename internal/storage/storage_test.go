package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yoockh/yoosight/internal/logger"
	"github.com/yoockh/yoosight/internal/utils"
)

func TestLocalFrameStoreLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s, err := NewLocalFrameStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p1, err := s.Save(ctx, []byte("jpeg-bytes"), ".jpg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	p2, err := s.Save(ctx, []byte("jpeg-bytes"), "jpg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("frame names collided: %s", p1)
	}
	if !strings.HasPrefix(filepath.Base(p1), "frame_") || filepath.Ext(p1) != ".jpg" {
		t.Fatalf("unexpected name %s", p1)
	}

	info, err := os.Stat(p1)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("frame should be private, got %v", info.Mode().Perm())
	}

	got, err := s.Load(ctx, p1)
	if err != nil || string(got) != "jpeg-bytes" {
		t.Fatalf("load: %q %v", got, err)
	}

	if err := s.Remove(ctx, p1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, p1); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	if _, err := s.Load(ctx, p1); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalFrameStoreRefusesForeignPaths(t *testing.T) {
	s, err := NewLocalFrameStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(t.TempDir(), "victim.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(context.Background(), outside); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("foreign file was touched: %v", err)
	}
	if _, err := s.Save(context.Background(), nil, "jpg"); !utils.IsCode(err, utils.CodeCaptureFailed) {
		t.Fatalf("empty frame should fail capture, got %v", err)
	}
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, _ := io.ReadAll(r)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[objectName] = b
	return "gs://bucket/" + objectName, nil
}

func TestArchivingFrameStoreUploadsThenRemoves(t *testing.T) {
	local, err := NewLocalFrameStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	up := &fakeUploader{}
	s := NewArchivingFrameStore(local, up, "", logger.Discard())

	p, err := s.Save(context.Background(), []byte("pixels"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("frame still on disk: %v", err)
	}
	if len(up.objects) != 1 {
		t.Fatalf("expected one archived object, got %d", len(up.objects))
	}
	for name, b := range up.objects {
		if !strings.HasPrefix(name, "frames/") || !bytes.Equal(b, []byte("pixels")) {
			t.Fatalf("unexpected object %s=%q", name, b)
		}
	}
}

func TestArchivingFrameStoreRemovesEvenWhenUploadFails(t *testing.T) {
	local, err := NewLocalFrameStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := NewArchivingFrameStore(local, &fakeUploader{err: errors.New("offline")}, "", logger.Discard())

	p, err := s.Save(context.Background(), []byte("pixels"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("frame still on disk: %v", err)
	}
}
