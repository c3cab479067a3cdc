package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

// snapshotStoreInMemory — key-value слот снимков в памяти процесса.
type snapshotStoreInMemory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewSnapshotStore возвращает in-memory хранилище снимков для локальной разработки и тестов.
func NewSnapshotStore() domain.SnapshotStore {
	return &snapshotStoreInMemory{
		slots: make(map[string][]byte),
	}
}

// Load возвращает копию снимка или ErrSnapshotNotFound.
func (s *snapshotStoreInMemory) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save перезаписывает слот копией data.
func (s *snapshotStoreInMemory) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Храним копию, чтобы вызывающий не мог изменить снимок извне.
	stored := make([]byte, len(data))
	copy(stored, data)
	s.slots[key] = stored
	return nil
}

var _ domain.SnapshotStore = (*snapshotStoreInMemory)(nil)
