// pkg/tenants/memory.go
package tenants

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type memStore struct {
	log   *zap.SugaredLogger
	mu    sync.RWMutex
	byKey map[string]Record
}

// NewMemoryStore keeps records in-process. Dev bring-up and tests only;
// installations do not survive a restart.
func NewMemoryStore(log *zap.SugaredLogger) Store {
	return &memStore{log: log, byKey: map[string]Record{}}
}

func (m *memStore) Put(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[rec.Key] = rec
	return nil
}

func (m *memStore) Get(ctx context.Context, tenantKey string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.byKey[tenantKey]; ok {
		return rec, nil
	}
	return Record{}, ErrNotFound
}

func (m *memStore) Delete(ctx context.Context, tenantKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byKey, tenantKey)
	return nil
}

func (m *memStore) GetField(ctx context.Context, tenantKey, field string) (string, error) {
	rec, err := m.Get(ctx, tenantKey)
	if err != nil {
		return "", err
	}
	return fieldFromRecord(rec, field)
}

func (m *memStore) SharedSecret(ctx context.Context, tenantKey string) (string, error) {
	return m.GetField(ctx, tenantKey, FieldSharedSecret)
}
