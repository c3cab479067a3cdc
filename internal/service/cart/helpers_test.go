package cart_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/service/cart"
	"github.com/vladislavdragonenkov/shopcart/internal/service/catalog"
	"github.com/vladislavdragonenkov/shopcart/internal/storage/memory"
)

// countingSnapshots считает записи и умеет имитировать отказ хранилища.
type countingSnapshots struct {
	inner domain.SnapshotStore

	mu      sync.Mutex
	saves   int
	saveErr error
	loadErr error
}

func newCountingSnapshots() *countingSnapshots {
	return &countingSnapshots{inner: memory.NewSnapshotStore()}
}

func (c *countingSnapshots) Load(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	err := c.loadErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.inner.Load(ctx, key)
}

func (c *countingSnapshots) Save(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.saves++
	return c.inner.Save(ctx, key, data)
}

func (c *countingSnapshots) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func (c *countingSnapshots) FailSaves(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveErr = err
}

// stored возвращает корзину, лежащую в слоте.
func (c *countingSnapshots) stored(t *testing.T) domain.Cart {
	t.Helper()
	data, err := c.inner.Load(context.Background(), domain.CartStorageKey)
	require.NoError(t, err)
	stored, err := domain.DecodeSnapshot(data)
	require.NoError(t, err)
	return stored
}

// seed кладёт в слот готовую корзину, не увеличивая счётчик записей.
func (c *countingSnapshots) seed(t *testing.T, items domain.Cart) {
	t.Helper()
	data, err := domain.EncodeSnapshot(items)
	require.NoError(t, err)
	require.NoError(t, c.inner.Save(context.Background(), domain.CartStorageKey, data))
}

func shoe(id, amount int) domain.Product {
	return domain.Product{
		ID:     id,
		Title:  "Tênis",
		Price:  decimal.RequireFromString("139.9"),
		Image:  "tenis.jpg",
		Amount: amount,
	}
}

// newFixture собирает Store поверх mock-каталога и считающего слота.
func newFixture(t *testing.T, seeded domain.Cart, options ...cart.Option) (*cart.Store, *catalog.MockService, *countingSnapshots) {
	t.Helper()

	catalogMock := catalog.NewMockService()
	snapshots := newCountingSnapshots()
	if seeded != nil {
		snapshots.seed(t, seeded)
	}

	store := cart.NewStore(context.Background(), catalogMock, snapshots, options...)
	t.Cleanup(store.Close)
	return store, catalogMock, snapshots
}

// raw возвращает байты снимка в слоте.
func (c *countingSnapshots) raw(t *testing.T) string {
	t.Helper()
	data, err := c.inner.Load(context.Background(), domain.CartStorageKey)
	require.NoError(t, err)
	return string(data)
}
