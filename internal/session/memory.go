package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store bounded by entry count. Entries expire after the
// store-wide TTL or the per-Put TTL, whichever comes first.
type MemoryStore struct {
	cache *expirable.LRU[string, memoryEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a memory store holding at most maxEntries values.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, memoryEntry](maxEntries, nil, ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores a copy of value.
func (m *MemoryStore) Put(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.cache.Add(storageKey(sessionID, key), entry)
	return nil
}

// Get returns a copy of the stored value.
func (m *MemoryStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	k := storageKey(sessionID, key)
	entry, ok := m.cache.Get(k)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.cache.Remove(k)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Delete removes the value; deleting a missing key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, sessionID, key string) error {
	m.cache.Remove(storageKey(sessionID, key))
	return nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
