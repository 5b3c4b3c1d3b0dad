package tests

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/msquare/pkg/ports"
)

// MediaStorageContractTest is a reusable test suite that verifies if an adapter complies with ports.MediaStorage.
// read fetches an object back by path so the suite can check what was stored.
func MediaStorageContractTest(t *testing.T, storage ports.MediaStorage, read func(path string) ([]byte, error)) {
	t.Helper()
	ctx := context.Background()

	// 1. Put then read back
	t.Run("Put_Success", func(t *testing.T) {
		url, err := storage.Put(ctx, "p1/1700000000000.jpg", bytes.NewReader([]byte("jpeg-bytes")))
		if err != nil {
			t.Fatalf("unexpected error putting object: %v", err)
		}
		if !strings.HasSuffix(url, "p1/1700000000000.jpg") {
			t.Errorf("url %q does not end with the object path", url)
		}
		got, err := read("p1/1700000000000.jpg")
		if err != nil {
			t.Fatalf("unexpected error reading object back: %v", err)
		}
		if string(got) != "jpeg-bytes" {
			t.Errorf("content mismatch. got %q, want %q", got, "jpeg-bytes")
		}
	})

	// 2. Paths escaping the bucket are rejected
	t.Run("Put_InvalidPath", func(t *testing.T) {
		for _, path := range []string{"", "../escape.jpg", "/etc/passwd", "p1/../../escape.jpg"} {
			if _, err := storage.Put(ctx, path, strings.NewReader("x")); err == nil {
				t.Errorf("expected error for path %q, got nil", path)
			}
		}
	})

	// 3. Delete, twice
	t.Run("Delete", func(t *testing.T) {
		if _, err := storage.Put(ctx, "p2/clip.mp4", strings.NewReader("mp4")); err != nil {
			t.Fatalf("unexpected error putting object: %v", err)
		}
		if err := storage.Delete(ctx, "p2/clip.mp4"); err != nil {
			t.Fatalf("unexpected error deleting object: %v", err)
		}
		if _, err := read("p2/clip.mp4"); err == nil {
			t.Error("object still readable after delete")
		}
		if err := storage.Delete(ctx, "p2/clip.mp4"); err != nil {
			t.Errorf("deleting a missing object should not fail, got %v", err)
		}
	})
}
