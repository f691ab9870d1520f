package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sakif/test-case-generator/internal/model"
)

// DefaultMaxEntries bounds the in-memory store. When full, the least
// recently used session is evicted.
const DefaultMaxEntries = 10000

// MemoryStore is a bounded, expiring, process-local Store.
//
// The expirable LRU drops entries ttl after they were added and caps the
// total count, so the map can no longer grow without limit. Each session's
// own ExpiresAt is also honoured on Get, which matters when it is shorter
// than the store ttl.
type MemoryStore struct {
	cache *expirable.LRU[string, model.Session]
	now   func() time.Time
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, model.Session](maxEntries, nil, ttl),
		now:   time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, s model.Session) error {
	m.cache.Add(s.ID, s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound()
	}
	if s.Expired(m.now()) {
		m.cache.Remove(id)
		return nil, ErrNotFound()
	}
	return &s, nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
