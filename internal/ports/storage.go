package ports

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject and DeleteObject for an unknown key.
var ErrObjectNotFound = errors.New("object not found")

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey is the handle for later reads. localfs echoes the input key;
	// gdrive returns the Drive file id.
	ObjectKey string
	Size      int64
}

// StorageProvider stores scene export documents (localfs, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
