package storage

import (
	"bytes"
	"context"
	"mime"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ArchivingFrameStore uploads each frame before it is removed. Upload failures never block removal.
type ArchivingFrameStore struct {
	FrameStore
	uploader Uploader
	prefix   string
	log      *logrus.Logger
}

func NewArchivingFrameStore(inner FrameStore, uploader Uploader, prefix string, log *logrus.Logger) *ArchivingFrameStore {
	if prefix == "" {
		prefix = "frames"
	}
	if log == nil {
		log = logrus.New()
	}
	return &ArchivingFrameStore{FrameStore: inner, uploader: uploader, prefix: prefix, log: log}
}

func (s *ArchivingFrameStore) Remove(ctx context.Context, path string) error {
	if data, err := s.FrameStore.Load(ctx, path); err == nil {
		name := s.prefix + "/" + time.Now().UTC().Format("2006/01/02") + "/" + filepath.Base(path)
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if stored, err := s.uploader.Upload(ctx, name, contentType, bytes.NewReader(data)); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("frame archive upload failed")
		} else {
			s.log.WithField("object", stored).Debug("frame archived")
		}
	}
	return s.FrameStore.Remove(ctx, path)
}
