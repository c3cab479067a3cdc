package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

// ErrBreakerOpen — вызов заблокирован открытым circuit breaker.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// CircuitState — состояние circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker размыкает цепь после maxFailures ошибок подряд
// и пропускает пробный вызов через resetTimeout.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       CircuitState
	logger      *log.Entry
}

// NewCircuitBreaker создаёт circuit breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.WithField("component", "circuit-breaker")
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        CircuitClosed,
		logger:       logger,
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute выполняет операцию через circuit breaker.
// Ошибки, для которых countable возвращает false, не считаются отказами.
func (cb *CircuitBreaker) Execute(operation string, fn func() error, countable func(error) bool) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.logger.WithField("operation", operation).Info("circuit breaker half-open")
		} else {
			cb.mu.Unlock()
			return fmt.Errorf("%s: %w", operation, ErrBreakerOpen)
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && (countable == nil || countable(err)) {
		cb.failures++
		cb.lastFailure = cb.now()

		if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = CircuitOpen
			cb.logger.WithFields(log.Fields{
				"operation": operation,
				"failures":  cb.failures,
			}).Warn("circuit breaker opened")
		}
		return err
	}

	// Успешный или бизнес-неуспешный вызов сбрасывает счётчик
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.logger.WithField("operation", operation).Info("circuit breaker closed")
	}
	cb.failures = 0
	return err
}

// BreakerService защищает CatalogService circuit breaker'ом.
type BreakerService struct {
	next    domain.CatalogService
	breaker *CircuitBreaker
}

// NewBreakerService оборачивает каталог.
func NewBreakerService(next domain.CatalogService, breaker *CircuitBreaker) *BreakerService {
	return &BreakerService{next: next, breaker: breaker}
}

// Breaker возвращает используемый circuit breaker.
func (b *BreakerService) Breaker() *CircuitBreaker {
	return b.breaker
}

// GetStock запрашивает остаток через breaker.
func (b *BreakerService) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	var stock domain.Stock
	err := b.breaker.Execute("GetStock", func() error {
		var err error
		stock, err = b.next.GetStock(ctx, productID)
		return err
	}, isOutage)
	if err != nil {
		return domain.Stock{}, asUnavailable(err)
	}
	return stock, nil
}

// GetProduct запрашивает карточку через breaker.
func (b *BreakerService) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	var product domain.Product
	err := b.breaker.Execute("GetProduct", func() error {
		var err error
		product, err = b.next.GetProduct(ctx, productID)
		return err
	}, isOutage)
	if err != nil {
		return domain.Product{}, asUnavailable(err)
	}
	return product, nil
}

// isOutage — отсутствие товара и отмена вызывающим не говорят о недоступности каталога.
func isOutage(err error) bool {
	return !errors.Is(err, ErrUnknownProduct) && !errors.Is(err, context.Canceled)
}

func asUnavailable(err error) error {
	if errors.Is(err, domain.ErrRemoteUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
}

var _ domain.CatalogService = (*BreakerService)(nil)
