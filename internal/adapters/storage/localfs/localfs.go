package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"preflight/internal/ports"
)

// LocalFS implements ports.StorageProvider on a directory tree.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

// path resolves a key below root and refuses keys that escape it.
func (l *LocalFS) path(objectKey string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("object_key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(objectKey))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object_key %q escapes storage root", objectKey)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	dst, err := l.path(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, err
	}

	// Write to a sibling temp file so readers never see a partial export.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	n, err := io.Copy(tmp, in.Reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return ports.PutObjectOutput{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return ports.PutObjectOutput{}, err
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	p, err := l.path(objectKey)
	if err != nil {
		return nil, "", 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", 0, fmt.Errorf("%s: %w", objectKey, ports.ErrObjectNotFound)
		}
		return nil, "", 0, err
	}

	if st, statErr := f.Stat(); statErr == nil {
		size = st.Size()
	}
	contentType = mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, size, nil
}

func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", objectKey, ports.ErrObjectNotFound)
		}
		return err
	}
	return nil
}
