package memory

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

// Bucket implements ports.MediaStorage in memory.
// It backs the preview and tests when no media directory is configured.
type Bucket struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewBucket creates an empty bucket whose URLs are baseURL + "/" + path.
func NewBucket(baseURL string) *Bucket {
	return &Bucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Put stores the object.
func (b *Bucket) Put(ctx context.Context, p string, r io.Reader) (string, error) {
	key, err := cleanKey(p)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return b.baseURL + "/" + key, nil
}

// Delete removes the object.
func (b *Bucket) Delete(ctx context.Context, p string) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

// Read returns a copy of the object.
func (b *Bucket) Read(p string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[p]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", p)
	}
	return append([]byte(nil), data...), nil
}

// Len reports the number of stored objects.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func cleanKey(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	key := path.Clean(p)
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return key, nil
}
