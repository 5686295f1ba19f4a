package snapshot

import (
	"context"
	"sync"

	"github.com/mkrupp/nextshop/internal/domain"
)

// MemorySnapshotRepository implements Repository with an in-process map.
// Snapshots do not survive a restart; it is the default backend for
// development and the backend used in tests.
type MemorySnapshotRepository struct {
	mu    sync.RWMutex
	store map[string][]byte
}

var _ Repository = (*MemorySnapshotRepository)(nil)

// MemorySnapshotRepositoryFactory creates a factory function that returns a
// new MemorySnapshotRepository.
func MemorySnapshotRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemorySnapshotRepository(), nil
	}
}

// NewMemorySnapshotRepository creates an empty in-memory snapshot repository.
func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{
		store: make(map[string][]byte),
	}
}

// Store implements Repository.Store.
func (r *MemorySnapshotRepository) Store(
	_ context.Context,
	sessionID domain.SessionID,
	name string,
	data []byte,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	r.store[memoryKey(sessionID, name)] = buf

	return nil
}

// Fetch implements Repository.Fetch.
func (r *MemorySnapshotRepository) Fetch(
	_ context.Context,
	sessionID domain.SessionID,
	name string,
) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.store[memoryKey(sessionID, name)]
	if !ok {
		return nil, false, nil
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return buf, true, nil
}

// Delete implements Repository.Delete.
func (r *MemorySnapshotRepository) Delete(
	_ context.Context,
	sessionID domain.SessionID,
	name string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, memoryKey(sessionID, name))

	return nil
}

// Close implements Repository.Close.
func (r *MemorySnapshotRepository) Close() error {
	return nil
}

func memoryKey(sessionID domain.SessionID, name string) string {
	return sessionID.String() + "/" + name
}
