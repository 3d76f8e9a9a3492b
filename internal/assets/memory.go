package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryUploader keeps assets in process memory. URLs are baseURL + "/" + key.
type MemoryUploader struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (u *MemoryUploader) Upload(_ context.Context, data []byte, contentType string) (Object, error) {
	key := uuid.NewString() + ExtensionFor(contentType)

	u.mu.Lock()
	u.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	u.mu.Unlock()

	return Object{Key: key, URL: u.baseURL + "/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (u *MemoryUploader) Open(_ context.Context, key string) (io.ReadCloser, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	obj, ok := u.objects[key]
	if !ok {
		return nil, fmt.Errorf("asset %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// ContentType returns the stored type of key, or "" when unknown.
func (u *MemoryUploader) ContentType(key string) string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.objects[key].contentType
}
