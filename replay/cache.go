// Package replay remembers successful responses by idempotency key so a retried request
// gets the original answer instead of running twice.
package replay

import (
	"context"
	"sync"
	"time"
)

// Response is a captured HTTP response.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type Cache interface {
	// Reserve claims key for ttl. It returns the stored response if the key completed
	// earlier, or reserved=false while another request holds the key.
	Reserve(ctx context.Context, key string, ttl time.Duration) (stored *Response, reserved bool, err error)
	// Complete stores the response for a reserved key.
	Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error
	// Release drops a reservation so the key can be retried.
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	resp    *Response
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Reserve(ctx context.Context, key string, ttl time.Duration) (*Response, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, ok := m.entries[key]; ok && now.Before(entry.expires) {
		if entry.resp == nil {
			return nil, false, nil
		}
		resp := *entry.resp
		return &resp, false, nil
	}

	m.entries[key] = memoryEntry{expires: now.Add(ttl)}
	return nil, true, nil
}

func (m *MemoryCache) Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{resp: &resp, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
