package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

// ErrUnknownProduct — каталог не знает товар с таким id.
var ErrUnknownProduct = errors.New("product not found in catalog")

// MockService — конфигурируемая in-memory реализация CatalogService
// для локальной разработки и тестов.
type MockService struct {
	mu       sync.Mutex
	stock    map[int]int
	products map[int]domain.Product

	StockErr   error
	ProductErr error
	// BeforeStock вызывается перед ответом GetStock (например, чтобы придержать запрос в тесте).
	BeforeStock func(productID int)

	StockCalls   int
	ProductCalls int
}

// NewMockService возвращает пустой каталог.
func NewMockService() *MockService {
	return &MockService{
		stock:    make(map[int]int),
		products: make(map[int]domain.Product),
	}
}

// NewDemoService возвращает каталог с демонстрационным набором кроссовок.
func NewDemoService() *MockService {
	m := NewMockService()
	demo := []struct {
		product domain.Product
		stock   int
	}{
		{domain.Product{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: decimal.RequireFromString("179.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg"}, 3},
		{domain.Product{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: decimal.RequireFromString("139.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 5},
		{domain.Product{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: decimal.RequireFromString("219.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"}, 2},
		{domain.Product{ID: 4, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: decimal.RequireFromString("139.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 1},
		{domain.Product{ID: 5, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: decimal.RequireFromString("139.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 5},
		{domain.Product{ID: 6, Title: "Tênis Adidas Duramo Lite 2.0", Price: decimal.RequireFromString("219.9"), Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"}, 10},
	}
	for _, d := range demo {
		m.Put(d.product, d.stock)
	}
	return m
}

// Put регистрирует товар и его остаток.
func (m *MockService) Put(product domain.Product, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.Amount = 0
	m.products[product.ID] = product
	m.stock[product.ID] = stock
}

// SetStock меняет остаток товара.
func (m *MockService) SetStock(productID, amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = amount
}

// GetStock возвращает настроенный остаток и считает вызовы.
func (m *MockService) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	m.mu.Lock()
	m.StockCalls++
	hook := m.BeforeStock
	m.mu.Unlock()

	if hook != nil {
		hook(productID)
	}
	if err := ctx.Err(); err != nil {
		return domain.Stock{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StockErr != nil {
		return domain.Stock{}, m.StockErr
	}
	amount, ok := m.stock[productID]
	if !ok {
		return domain.Stock{}, fmt.Errorf("stock %d: %w", productID, ErrUnknownProduct)
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

// GetProduct возвращает карточку товара и считает вызовы.
func (m *MockService) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProductCalls++
	if m.ProductErr != nil {
		return domain.Product{}, m.ProductErr
	}
	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, ErrUnknownProduct)
	}
	return product, nil
}

// Calls возвращает счётчики вызовов.
func (m *MockService) Calls() (stock, product int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StockCalls, m.ProductCalls
}

var _ domain.CatalogService = (*MockService)(nil)
