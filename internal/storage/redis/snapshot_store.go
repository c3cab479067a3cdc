package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

const keyPrefix = "shopcart:"

// SnapshotStore хранит снимок корзины в Redis без TTL.
type SnapshotStore struct {
	client *goredis.Client
}

// NewSnapshotStore создаёт хранилище поверх готового клиента.
func NewSnapshotStore(client *goredis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Open подключается к Redis и проверяет доступность.
func Open(ctx context.Context, addr string) (*SnapshotStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewSnapshotStore(client), nil
}

// Load возвращает снимок или ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, slotKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Save перезаписывает слот.
func (s *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, slotKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %w", domain.ErrPersistenceFailure, key, err)
	}
	return nil
}

// Ping проверяет доступность Redis.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиента.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

func slotKey(key string) string {
	return keyPrefix + key
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
