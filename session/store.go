package session

import (
	"context"
	"sync"
)

// Store persists a Context between process runs. Load on an empty store
// returns a fresh Context and no error.
type Store interface {
	Load(ctx context.Context) (Context, error)
	Save(ctx context.Context, c Context) error
}

// MemoryStore keeps the context in memory. It is mostly useful in tests and
// for short-lived processes.
type MemoryStore struct {
	mu  sync.RWMutex
	rec Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load returns the stored context, or a fresh one when nothing was saved.
func (m *MemoryStore) Load(_ context.Context) (Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return FromRecord(m.rec)
}

// Save validates c and replaces the stored context.
func (m *MemoryStore) Save(_ context.Context, c Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rec = c.ToRecord()

	return nil
}

var _ Store = (*MemoryStore)(nil)
