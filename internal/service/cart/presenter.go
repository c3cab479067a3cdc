package cart

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/metrics"
)

// Сообщения пользователю: фиксированный текст на операцию и класс ошибки.
const (
	MessageOutOfStock     = "Requested quantity out of stock"
	MessageAddFailed      = "Error adding product"
	MessageRemoveFailed   = "Error removing product"
	MessageUpdateFailed   = "Error changing product quantity"
	messageUnknownFailure = "Unexpected cart error"
)

// Message возвращает текст уведомления для неуспешной операции.
func Message(op domain.Operation, err error) string {
	if err == nil {
		return ""
	}
	switch op {
	case domain.OperationAdd:
		if errors.Is(err, domain.ErrInsufficientStock) {
			return MessageOutOfStock
		}
		return MessageAddFailed
	case domain.OperationRemove:
		return MessageRemoveFailed
	case domain.OperationUpdate:
		if errors.Is(err, domain.ErrInsufficientStock) {
			return MessageOutOfStock
		}
		return MessageUpdateFailed
	default:
		return messageUnknownFailure
	}
}

// Presenter связывает Store с поверхностью уведомлений: операции ничего не возвращают,
// каждая неудача превращается ровно в одно уведомление.
type Presenter struct {
	store    *Store
	notifier domain.Notifier
	metrics  *metrics.CartMetrics
	logger   *log.Entry
}

// NewPresenter создаёт presenter поверх store.
func NewPresenter(store *Store, notifier domain.Notifier, m *metrics.CartMetrics, logger *log.Entry) *Presenter {
	if logger == nil {
		logger = log.WithField("component", "cart-presenter")
	}
	return &Presenter{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Cart возвращает текущее состояние корзины.
func (p *Presenter) Cart() domain.Cart {
	return p.store.Cart()
}

// AddProduct добавляет товар; ошибки уходят в уведомления.
func (p *Presenter) AddProduct(ctx context.Context, productID int) {
	p.report(ctx, domain.OperationAdd, p.store.AddProduct(ctx, productID))
}

// RemoveProduct удаляет товар; ошибки уходят в уведомления.
func (p *Presenter) RemoveProduct(ctx context.Context, productID int) {
	p.report(ctx, domain.OperationRemove, p.store.RemoveProduct(ctx, productID))
}

// UpdateProductAmount меняет количество; ошибки уходят в уведомления.
func (p *Presenter) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) {
	p.report(ctx, domain.OperationUpdate, p.store.UpdateProductAmount(ctx, req))
}

func (p *Presenter) report(ctx context.Context, op domain.Operation, err error) {
	if err == nil {
		return
	}
	if p.metrics != nil {
		p.metrics.RecordNotification(string(op))
	}
	p.logger.WithField("operation", op).WithField("result", ResultOf(err)).Debug("raising user notification")
	p.notifier.Notify(ctx, domain.Notification{
		Level:   domain.NotificationError,
		Message: Message(op, err),
	})
}
