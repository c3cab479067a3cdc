package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

// SnapshotRepository хранит снимки корзины в таблице cart_snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository создаёт репозиторий поверх открытого Store.
func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{db: store.DB()}
}

// Load возвращает снимок по ключу слота.
func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM cart_snapshots WHERE slot_key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot %s: %w", key, err)
	}
	return payload, nil
}

// Save перезаписывает слот целиком и увеличивает ревизию.
func (r *SnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_snapshots (slot_key, payload, updated_at, revision)
		VALUES ($1, $2::jsonb, NOW(), 1)
		ON CONFLICT (slot_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    updated_at = NOW(),
		    revision = cart_snapshots.revision + 1
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("%w: save cart snapshot %s: %w", domain.ErrPersistenceFailure, key, err)
	}
	return nil
}

// Revision возвращает число перезаписей слота; 0, если слот пуст.
func (r *SnapshotRepository) Revision(ctx context.Context, key string) (int64, error) {
	var revision int64
	err := r.db.QueryRowContext(ctx,
		`SELECT revision FROM cart_snapshots WHERE slot_key = $1`, key,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load cart snapshot revision %s: %w", key, err)
	}
	return revision, nil
}

var _ domain.SnapshotStore = (*SnapshotRepository)(nil)
