package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/stock/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"amount":3}`))
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"Tênis de Caminhada Leve Confortável","price":179.9,"image":"tenis1.jpg","brand":"Nike"}`))
	})
	mux.HandleFunc("/stock/500", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/stock/2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetStock(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL+"/", WithTimeout(time.Second))

	stock, err := client.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Stock{ID: 1, Amount: 3}, stock)
}

func TestClient_GetProduct(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL)

	product, err := client.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, product.ID)
	assert.Equal(t, "Tênis de Caminhada Leve Confortável", product.Title)
	assert.Equal(t, "179.9", product.Price.String())
	assert.Equal(t, 0, product.Amount)
	assert.JSONEq(t, `"Nike"`, string(product.Attributes["brand"]))

	product.Amount = 1
	encoded, err := json.Marshal(product)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"title":"Tênis de Caminhada Leve Confortável","price":179.9,"image":"tenis1.jpg","brand":"Nike","amount":1}`, string(encoded))
}

func TestClient_Errors(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.GetStock(ctx, 500)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "status 500")

	_, err = client.GetProduct(ctx, 77)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = client.GetStock(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestClient_TransportError(t *testing.T) {
	srv := newCatalogServer(t)
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := client.GetStock(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	assert.ErrorIs(t, client.Ping(context.Background()), domain.ErrRemoteUnavailable)
}

func TestClient_Ping(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL)

	assert.NoError(t, client.Ping(context.Background()))
}
