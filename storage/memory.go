package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// MemoryUploader keeps published documents in memory. It backs local runs
// without an R2 bucket and the tests.
type MemoryUploader struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	base    *url.URL
}

type memoryObject struct {
	contentType string
	body        []byte
}

func NewMemoryUploader(publicBaseURL string) *MemoryUploader {
	base, _ := url.Parse(publicBaseURL)
	return &MemoryUploader{objects: make(map[string]memoryObject), base: base}
}

func (m *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	sum := md5.Sum(body)

	m.mu.Lock()
	m.objects[key] = memoryObject{contentType: contentType, body: body}
	m.mu.Unlock()

	return &UploadResult{Key: key, Location: m.GetPublicURL(key), ETag: hex.EncodeToString(sum[:])}, nil
}

func (m *MemoryUploader) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryUploader) GetPublicURL(key string) string {
	return publicURL(m.base, key)
}

// Object returns a stored document.
func (m *MemoryUploader) Object(key string) (body []byte, contentType string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.body), obj.contentType, true
}

func (m *MemoryUploader) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

// ServeHTTP serves stored documents by key, the request path without its
// leading slash.
func (m *MemoryUploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, contentType, ok := m.Object(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(body)
}
