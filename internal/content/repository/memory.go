package repository

import (
	"context"
	"sync"
)

// MemoryRepo keeps the document bytes in memory. Used by unit tests and by
// ephemeral runs that do not need durability.
type MemoryRepo struct {
	mu      sync.RWMutex
	raw     []byte
	present bool
	saveErr error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// SetRaw replaces the stored bytes verbatim, valid JSON or not.
func (m *MemoryRepo) SetRaw(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append([]byte(nil), raw...)
	m.present = true
}

// FailSaves makes every following Save return err; nil clears it.
func (m *MemoryRepo) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MemoryRepo) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.raw...), nil
}

func (m *MemoryRepo) Save(ctx context.Context, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.raw = append([]byte(nil), raw...)
	m.present = true
	return nil
}
