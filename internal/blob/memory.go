package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in process memory. Used by tests and single-node
// development servers.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objs    map[string]object
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{baseURL: baseURL, objs: make(map[string]object)}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return "", fmt.Errorf("blob %s already exists", key)
	}
	s.objs[key] = object{data: b, contentType: contentType}
	return joinURL(s.baseURL, key), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return ErrNotFound
	}
	delete(s.objs, key)
	return nil
}

// Object returns a copy of the stored contents and content type.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objs[key]
	if !ok {
		return nil, "", false
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.contentType, true
}
