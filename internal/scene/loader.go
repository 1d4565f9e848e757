package scene

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"preflight/internal/ports"
)

// LoadFile decodes an export from disk, picking the format from the extension.
func LoadFile(p string) (*Export, error) {
	format, err := FormatFromPath(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, format)
}

// ObjectKey is the storage key of a scene export.
func ObjectKey(sceneID string, format Format) string {
	return path.Join("scenes", sceneID, "export"+format.Ext())
}

// Loader moves export documents in and out of a storage provider.
type Loader struct {
	store ports.StorageProvider
}

func NewLoader(store ports.StorageProvider) *Loader {
	return &Loader{store: store}
}

// Provider names the backing storage provider.
func (l *Loader) Provider() string {
	return l.store.Provider()
}

// Save validates raw and stores it under the scene's key. The returned object key is the
// provider's handle for later reads, which is not always ObjectKey (Drive returns a file id).
func (l *Loader) Save(ctx context.Context, sceneID string, format Format, raw []byte) (*Export, ports.PutObjectOutput, error) {
	exp, err := DecodeBytes(raw, format)
	if err != nil {
		return nil, ports.PutObjectOutput{}, err
	}
	out, err := l.store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   ObjectKey(sceneID, format),
		ContentType: format.ContentType(),
		Reader:      bytes.NewReader(raw),
		Size:        int64(len(raw)),
	})
	if err != nil {
		return nil, ports.PutObjectOutput{}, fmt.Errorf("store export: %w", err)
	}
	return exp, out, nil
}

// Load fetches and decodes a stored export.
func (l *Loader) Load(ctx context.Context, objectKey string, format Format) (*Export, error) {
	rc, _, _, err := l.store.GetObject(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch export %s: %w", objectKey, err)
	}
	defer rc.Close()
	return Decode(rc, format)
}

// Delete removes a stored export.
func (l *Loader) Delete(ctx context.Context, objectKey string) error {
	return l.store.DeleteObject(ctx, objectKey)
}
