package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/yoockh/yoosight/internal/utils"
)

// GCSUploader archives frames into one bucket. Objects are private and write-once.
type GCSUploader struct {
	client *gcs.Client
	bucket string
	owned  bool
}

// NewGCSUploader dials GCS with application default credentials, or the emulator named by
// STORAGE_EMULATOR_HOST.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	u := NewGCSUploaderWithClient(c, bucket)
	u.owned = true
	return u, nil
}

func NewGCSUploaderWithClient(client *gcs.Client, bucket string) *GCSUploader {
	return &GCSUploader{client: client, bucket: bucket}
}

func (u *GCSUploader) Close() error {
	if !u.owned {
		return nil
	}
	return u.client.Close()
}

func (u *GCSUploader) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	const op = "GCSUploader.Upload"

	if objectName == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "object name is required", nil)
	}

	obj := u.client.Bucket(u.bucket).Object(objectName).If(gcs.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, no-store"
	w.ChunkSize = 0 // frames fit in one request
	w.Metadata = map[string]string{"origin": "yoosight-frame-archive"}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", utils.E(utils.CodeUnavailable, op, "frame upload failed", err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return "", utils.E(utils.CodeConflict, op, "archive object already exists", err)
		}
		return "", utils.E(utils.CodeUnavailable, op, "frame upload failed", err)
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, objectName), nil
}
