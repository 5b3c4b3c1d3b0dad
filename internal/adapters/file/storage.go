package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage implements ports.MediaStorage on the local filesystem.
// Objects live under BaseDir and are published under BaseURL, which the HTTP server serves at /media.
type Storage struct {
	BaseDir string
	BaseURL string
}

// New creates a Storage. An empty baseDir defaults to "media", an empty baseURL to "/media".
func New(baseDir, baseURL string) *Storage {
	if baseDir == "" {
		baseDir = "media"
	}
	if baseURL == "" {
		baseURL = "/media"
	}
	return &Storage{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// resolve maps an object key to a file under BaseDir, rejecting keys that escape it.
func (s *Storage) resolve(key string) (string, string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", "", fmt.Errorf("invalid object path %q", key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "", fmt.Errorf("invalid object path %q", key)
	}
	return clean, filepath.Join(s.BaseDir, filepath.FromSlash(clean)), nil
}

// Put writes the object atomically.
// It writes to a temporary file in the destination directory, syncs it, and then renames it into place.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	clean, destPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure media directory: %w", err)
	}

	// 1. Create Temp File on the same filesystem so the rename is atomic
	tmpFile, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // gone after a successful rename
	}()

	// 2. Copy, honouring cancellation between chunks
	if _, err := io.Copy(tmpFile, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", fmt.Errorf("failed to write media object: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return "", fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename into place
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to move media object into place: %w", err)
	}

	return s.BaseURL + "/" + clean, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media object: %w", err)
	}
	return nil
}

// Read returns the content of an object.
func (s *Storage) Read(key string) ([]byte, error) {
	_, p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
