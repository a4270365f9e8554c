package media

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
)

// MemoryStore keeps media in process memory. A positive quota (bytes) makes
// Put fail like a full origin store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Payload
	used  int
	quota int

	// FailPut, when set, is consulted before every write
	FailPut func(key string) error
}

// NewMemoryStore creates an in-memory store; quota <= 0 means unlimited
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{items: make(map[string]*Payload), quota: quota}
}

func (m *MemoryStore) Put(_ context.Context, key string, p *Payload) error {
	key = cleanKey(key)
	if key == "" {
		return failure.Newf(failure.KindInvalidInput, "media.put", "empty key")
	}
	if err := p.Validate(); err != nil {
		return failure.New(failure.KindInvalidInput, "media.put", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPut != nil {
		if err := m.FailPut(key); err != nil {
			return failure.New(failure.KindStorage, "media.put", err)
		}
	}

	used := m.used
	if old, ok := m.items[key]; ok {
		used -= old.Size()
	}
	if m.quota > 0 && used+p.Size() > m.quota {
		return failure.New(failure.KindStorage, "media.put", fmt.Errorf("quota exceeded"))
	}

	c := *p
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	c.Digest = digestOf(&c)
	p.Timestamp, p.Digest = c.Timestamp, c.Digest
	m.items[key] = &c
	m.used = used + c.Size()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Payload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[cleanKey(key)]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key = cleanKey(key)
	if p, ok := m.items[key]; ok {
		m.used -= p.Size()
		delete(m.items, key)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored payloads
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
