package cache

import (
	"context"
	"sync"
	"time"

	"catalog-sync/domain/model"
)

// DefaultTTL applies when Set is called without a ttl.
const DefaultTTL = time.Hour

type memoryEntry struct {
	value     model.CachedResponse
	expiresAt time.Time
}

// MemoryStorage keeps responses in process. Expired entries are evicted when read.
type MemoryStorage struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewMemoryStorage(defaultTTL time.Duration) *MemoryStorage {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MemoryStorage{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (*model.CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	value := cloneResponse(entry.value)
	return &value, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value *model.CachedResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: cloneResponse(*value), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Size returns the number of stored entries, expired ones included until read.
func (s *MemoryStorage) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}

func cloneResponse(in model.CachedResponse) model.CachedResponse {
	out := in
	out.Body = append([]byte(nil), in.Body...)
	out.Headers = make(map[string]string, len(in.Headers))
	for k, v := range in.Headers {
		out.Headers[k] = v
	}
	return out
}
