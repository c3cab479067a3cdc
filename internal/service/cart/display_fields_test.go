package cart_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/service/cart"
	"github.com/vladislavdragonenkov/shopcart/internal/service/catalog"
)

func TestAddProduct_SnapshotKeepsCatalogFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stock/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"amount":3}`))
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"title":"Shoe","price":179.9,"image":"a.jpg","brand":"Nike"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snapshots := newCountingSnapshots()
	store := cart.NewStore(context.Background(), catalog.NewClient(srv.URL), snapshots)
	defer store.Close()

	require.NoError(t, store.AddProduct(context.Background(), 1))

	assert.Equal(t, `[{"id":1,"title":"Shoe","price":179.9,"image":"a.jpg","brand":"Nike","amount":1}]`, snapshots.raw(t))
}

func TestRestore_KeepsUnknownSnapshotFields(t *testing.T) {
	snapshots := newCountingSnapshots()
	seeded := `[{"id":1,"title":"Tênis","price":179.9,"image":"a.jpg","priceFormatted":"R$ 179,90","amount":1}]`
	require.NoError(t, snapshots.inner.Save(context.Background(), domain.CartStorageKey, []byte(seeded)))

	catalogMock := catalog.NewMockService()
	catalogMock.SetStock(1, 5)
	store := cart.NewStore(context.Background(), catalogMock, snapshots)
	defer store.Close()

	require.NoError(t, store.UpdateProductAmount(context.Background(), cart.UpdateProductAmount{ProductID: 1, Amount: 2}))

	assert.Equal(t, `[{"id":1,"title":"Tênis","price":179.9,"image":"a.jpg","priceFormatted":"R$ 179,90","amount":2}]`, snapshots.raw(t))
}
