package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
)

// MemoryUploader keeps objects in memory. It backs local runs without a bucket.
type MemoryUploader struct {
	mu      sync.RWMutex
	objects map[string][]byte
	base    *url.URL
}

func NewMemoryUploader(publicBaseURL string) *MemoryUploader {
	base, err := url.Parse(publicBaseURL)
	if err != nil || publicBaseURL == "" {
		base = nil
	} else if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}
	return &MemoryUploader{objects: make(map[string][]byte), base: base}
}

func (u *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object (key: %s): %w", key, err)
	}
	u.mu.Lock()
	u.objects[key] = data
	u.mu.Unlock()
	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *MemoryUploader) GetPublicURL(key string) string {
	return publicURL(u.base, key)
}

// Object returns a stored object and whether it exists.
func (u *MemoryUploader) Object(key string) ([]byte, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[key]
	return data, ok
}

func (u *MemoryUploader) Keys() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	keys := make([]string, 0, len(u.objects))
	for k := range u.objects {
		keys = append(keys, k)
	}
	return keys
}
