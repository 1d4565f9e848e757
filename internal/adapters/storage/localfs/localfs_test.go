package localfs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"preflight/internal/ports"
)

func TestPutGetDelete(t *testing.T) {
	fs := New(t.TempDir())
	ctx := context.Background()

	out, err := fs.PutObject(ctx, ports.PutObjectInput{
		ObjectKey: "scenes/scn_1/export.json",
		Reader:    strings.NewReader(`{"nodes":[]}`),
	})
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if out.ObjectKey != "scenes/scn_1/export.json" || out.Size != 12 {
		t.Errorf("unexpected output %+v", out)
	}

	rc, ct, size, err := fs.GetObject(ctx, out.ObjectKey)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != `{"nodes":[]}` || size != 12 {
		t.Errorf("unexpected body %q size %d", body, size)
	}
	if ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	if err := fs.DeleteObject(ctx, out.ObjectKey); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if _, _, _, err := fs.GetObject(ctx, out.ObjectKey); !errors.Is(err, ports.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
	if err := fs.DeleteObject(ctx, out.ObjectKey); !errors.Is(err, ports.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound on second delete, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	fs := New(t.TempDir())
	for _, key := range []string{"", "../outside", "/etc/passwd"} {
		_, err := fs.PutObject(context.Background(), ports.PutObjectInput{ObjectKey: key, Reader: strings.NewReader("x")})
		if err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}
