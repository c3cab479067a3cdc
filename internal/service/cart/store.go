package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/metrics"
)

// Observer получает каждое успешно применённое изменение корзины.
type Observer func(change domain.CartChange)

// UpdateProductAmount — запрос на установку абсолютного количества позиции.
type UpdateProductAmount struct {
	ProductID int `json:"productId"`
	Amount    int `json:"amount"`
}

// Store владеет состоянием корзины сессии.
//
// Все мутирующие операции сериализуются через opMu, который удерживается
// в том числе на время обращения к каталогу: параллельные вызовы видят
// согласованное состояние и не затирают изменения друг друга.
// Чтение корзины не ждёт сетевых вызовов.
type Store struct {
	catalog   domain.CatalogService
	snapshots domain.SnapshotStore
	logger    *log.Entry
	metrics   *metrics.CartMetrics
	key       string
	strict    bool

	opMu sync.Mutex

	mu   sync.RWMutex
	cart domain.Cart

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64
	closed    atomic.Bool
}

// NewStore создаёт корзину и восстанавливает её из снимка.
// Если снимка нет или он повреждён, корзина начинается пустой.
func NewStore(ctx context.Context, catalog domain.CatalogService, snapshots domain.SnapshotStore, options ...Option) *Store {
	opts := buildOptions(options)

	s := &Store{
		catalog:   catalog,
		snapshots: snapshots,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		key:       opts.StorageKey,
		strict:    opts.StrictFirstAdd,
		cart:      domain.Cart{},
		observers: make(map[uint64]Observer),
	}
	s.cart = s.restore(ctx)
	if s.metrics != nil {
		s.metrics.SetCartSize(len(s.cart), s.cart.TotalUnits())
	}
	return s
}

func (s *Store) restore(ctx context.Context) domain.Cart {
	data, err := s.snapshots.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.WithError(err).WithField("key", s.key).Warn("failed to load cart snapshot, starting empty")
		}
		return domain.Cart{}
	}

	restored, err := domain.DecodeSnapshot(data)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("discarding invalid cart snapshot")
		return domain.Cart{}
	}

	s.logger.WithFields(log.Fields{
		"key":        s.key,
		"line_items": len(restored),
	}).Info("cart restored from snapshot")
	return restored
}

// Cart возвращает копию текущего состояния корзины.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// StorageKey возвращает имя слота снимка.
func (s *Store) StorageKey() string {
	return s.key
}

// Subscribe регистрирует наблюдателя. Возвращённая функция снимает подписку.
func (s *Store) Subscribe(observer Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = observer

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// Close завершает жизнь корзины: новые операции отклоняются,
// изменения, завершившиеся после закрытия, наблюдателям не публикуются.
func (s *Store) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.obsMu.Lock()
	s.observers = make(map[uint64]Observer)
	s.obsMu.Unlock()
	s.logger.Debug("cart store closed")
}

// AddProduct добавляет единицу товара в корзину.
//
// Для уже добавленного товара количество увеличивается на 1 при достаточном остатке.
// Новый товар добавляется с количеством 1 без проверки остатка, если не включён
// WithStrictFirstAdd.
func (s *Store) AddProduct(ctx context.Context, productID int) error {
	start := time.Now()
	err := s.addProduct(ctx, productID)
	s.recordOperation(domain.OperationAdd, productID, err, start)
	return err
}

func (s *Store) addProduct(ctx context.Context, productID int) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	stock, err := s.fetchStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("add product %d: %w", productID, err)
	}

	current := s.Cart()
	var next domain.Cart
	var amount int

	if existing, ok := current.Find(productID); ok {
		amount = existing.Amount + 1
		if !stock.Covers(amount) {
			return fmt.Errorf("add product %d (available %d, requested %d): %w",
				productID, stock.Amount, amount, domain.ErrInsufficientStock)
		}
		if next, err = current.WithAmount(productID, amount); err != nil {
			return fmt.Errorf("add product %d: %w", productID, err)
		}
	} else {
		if s.strict && !stock.Covers(1) {
			return fmt.Errorf("add product %d (available %d, requested 1): %w",
				productID, stock.Amount, domain.ErrInsufficientStock)
		}
		product, err := s.fetchProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("add product %d: %w", productID, err)
		}
		product.ID = productID
		product.Amount = 1
		amount = 1
		if next, err = current.Append(product); err != nil {
			return fmt.Errorf("add product %d: %w", productID, err)
		}
	}

	return s.commit(ctx, domain.CartChange{
		Operation: domain.OperationAdd,
		ProductID: productID,
		Amount:    amount,
	}, next)
}

// RemoveProduct удаляет позицию из корзины. Обращений к каталогу нет.
func (s *Store) RemoveProduct(ctx context.Context, productID int) error {
	start := time.Now()
	err := s.removeProduct(ctx, productID)
	s.recordOperation(domain.OperationRemove, productID, err, start)
	return err
}

func (s *Store) removeProduct(ctx context.Context, productID int) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	next, err := s.Cart().Without(productID)
	if err != nil {
		return fmt.Errorf("remove product %d: %w", productID, err)
	}

	return s.commit(ctx, domain.CartChange{
		Operation: domain.OperationRemove,
		ProductID: productID,
	}, next)
}

// UpdateProductAmount выставляет абсолютное количество позиции.
// Количество <= 0 отклоняется до обращения к каталогу.
func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	start := time.Now()
	err := s.updateProductAmount(ctx, req)
	s.recordOperation(domain.OperationUpdate, req.ProductID, err, start)
	return err
}

func (s *Store) updateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if req.Amount <= 0 {
		return fmt.Errorf("update product %d amount %d: %w", req.ProductID, req.Amount, domain.ErrInvalidAmount)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	stock, err := s.fetchStock(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("update product %d: %w", req.ProductID, err)
	}

	current := s.Cart()
	if _, ok := current.Find(req.ProductID); !ok {
		return fmt.Errorf("update product %d: %w", req.ProductID, domain.ErrProductNotFound)
	}
	if !stock.Covers(req.Amount) {
		return fmt.Errorf("update product %d (available %d, requested %d): %w",
			req.ProductID, stock.Amount, req.Amount, domain.ErrInsufficientStock)
	}

	next, err := current.WithAmount(req.ProductID, req.Amount)
	if err != nil {
		return fmt.Errorf("update product %d: %w", req.ProductID, err)
	}

	return s.commit(ctx, domain.CartChange{
		Operation: domain.OperationUpdate,
		ProductID: req.ProductID,
		Amount:    req.Amount,
	}, next)
}

// commit сохраняет снимок и только после успешной записи применяет состояние в памяти,
// поэтому снимок и память всегда совпадают. Вызывается под opMu.
func (s *Store) commit(ctx context.Context, change domain.CartChange, next domain.Cart) error {
	data, err := domain.EncodeSnapshot(next)
	if err == nil {
		err = s.snapshots.Save(ctx, s.key, data)
		if s.metrics != nil {
			s.metrics.RecordSnapshotWrite(err)
		}
	}
	if err != nil {
		if !errors.Is(err, domain.ErrPersistenceFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
		}
		return fmt.Errorf("%s product %d: %w", change.Operation, change.ProductID, err)
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetCartSize(len(next), next.TotalUnits())
	}

	change.Cart = next.Clone()
	s.publish(change)
	return nil
}

func (s *Store) publish(change domain.CartChange) {
	if s.closed.Load() {
		s.logger.WithField("operation", change.Operation).Debug("store closed, skipping publish")
		return
	}

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.obsMu.Unlock()

	for _, obs := range observers {
		obs(change)
	}
}

func (s *Store) fetchStock(ctx context.Context, productID int) (domain.Stock, error) {
	start := time.Now()
	stock, err := s.catalog.GetStock(ctx, productID)
	if s.metrics != nil {
		s.metrics.RecordCatalogCall("stock", err, time.Since(start))
	}
	if err != nil {
		return domain.Stock{}, asRemoteUnavailable("get stock", err)
	}
	return stock, nil
}

func (s *Store) fetchProduct(ctx context.Context, productID int) (domain.Product, error) {
	start := time.Now()
	product, err := s.catalog.GetProduct(ctx, productID)
	if s.metrics != nil {
		s.metrics.RecordCatalogCall("product", err, time.Since(start))
	}
	if err != nil {
		return domain.Product{}, asRemoteUnavailable("get product", err)
	}
	return product, nil
}

// asRemoteUnavailable сводит любую ошибку каталога к ErrRemoteUnavailable:
// сетевая ошибка и отсутствие товара в каталоге не различаются.
func asRemoteUnavailable(call string, err error) error {
	if errors.Is(err, domain.ErrRemoteUnavailable) {
		return fmt.Errorf("%s: %w", call, err)
	}
	return fmt.Errorf("%s: %w: %w", call, domain.ErrRemoteUnavailable, err)
}

func (s *Store) recordOperation(op domain.Operation, productID int, err error, start time.Time) {
	result := ResultOf(err)
	if s.metrics != nil {
		s.metrics.RecordOperation(string(op), result, time.Since(start))
	}

	fields := log.Fields{
		"operation":  op,
		"product_id": productID,
		"result":     result,
	}
	if err != nil {
		entry := s.logger.WithError(err).WithFields(fields)
		if isBusinessRejection(err) {
			entry.Info("cart operation rejected")
			return
		}
		entry.Warn("cart operation failed")
		return
	}
	s.logger.WithFields(fields).Debug("cart operation applied")
}

// isBusinessRejection — отказ по правилам корзины, а не сбой инфраструктуры.
func isBusinessRejection(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrProductNotFound)
}

// ResultOf классифицирует результат операции для метрик и логов.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStoreClosed):
		return "closed"
	case errors.Is(err, domain.ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	default:
		return "error"
	}
}
