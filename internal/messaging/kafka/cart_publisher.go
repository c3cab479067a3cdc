package kafka

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

const defaultQueueSize = 256

// EventPublisher — транспорт событий (Producer или тестовая подмена).
type EventPublisher interface {
	PublishEvent(topic, key string, event *CartEvent) error
}

// CartEventPublisher подписывается на изменения корзины и публикует их в Kafka
// из отдельной горутины, чтобы мутации корзины не ждали брокер.
type CartEventPublisher struct {
	publisher EventPublisher
	topic     string
	cartKey   string
	queue     chan *CartEvent
	retry     RetryConfig
	dropped   atomic.Int64
	failed    atomic.Int64
	logger    *log.Entry
}

// NewCartEventPublisher создаёт publisher с очередью queueSize (<=0: по умолчанию).
func NewCartEventPublisher(publisher EventPublisher, cartKey string, queueSize int, logger *log.Entry) *CartEventPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = log.WithField("component", "cart-event-publisher")
	}
	return &CartEventPublisher{
		publisher: publisher,
		topic:     TopicCartEvents,
		cartKey:   cartKey,
		queue:     make(chan *CartEvent, queueSize),
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}
}

// WithRetry заменяет политику повторов публикации.
func (p *CartEventPublisher) WithRetry(cfg RetryConfig) *CartEventPublisher {
	p.retry = cfg
	return p
}

// Observe ставит событие в очередь. Не блокируется: при переполнении событие отбрасывается.
func (p *CartEventPublisher) Observe(change domain.CartChange) {
	event, ok := NewCartEvent(p.cartKey, change)
	if !ok {
		return
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.logger.WithFields(log.Fields{
			"event_type": event.EventType,
			"product_id": event.ProductID,
		}).Warn("cart event queue is full, dropping event")
	}
}

// Dropped возвращает число отброшенных событий.
func (p *CartEventPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Failed возвращает число событий, не опубликованных после всех попыток.
func (p *CartEventPublisher) Failed() int64 {
	return p.failed.Load()
}

// Run публикует события до отмены ctx, затем дописывает то, что уже в очереди.
// После отмены каждое оставшееся событие получает одну попытку.
func (p *CartEventPublisher) Run(ctx context.Context) error {
	p.logger.WithField("topic", p.topic).Info("cart event publisher started")
	for {
		select {
		case event := <-p.queue:
			p.publish(ctx, event)
		case <-ctx.Done():
			p.flush(ctx)
			p.logger.Info("cart event publisher stopped")
			return nil
		}
	}
}

func (p *CartEventPublisher) flush(ctx context.Context) {
	for {
		select {
		case event := <-p.queue:
			p.publish(ctx, event)
		default:
			return
		}
	}
}

func (p *CartEventPublisher) publish(ctx context.Context, event *CartEvent) {
	fields := log.Fields{
		"event_id":   event.EventID,
		"event_type": event.EventType,
	}
	attempts, err := retry(ctx, p.retry, func() error {
		return p.publisher.PublishEvent(p.topic, p.cartKey, event)
	}, func(attempt int, delay time.Duration, err error) {
		p.logger.WithError(err).WithFields(fields).WithFields(log.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("cart event publish failed, retrying")
	})
	if err != nil {
		p.failed.Add(1)
		p.logger.WithError(err).WithFields(fields).WithField("attempts", attempts).Error("cart event not published")
		return
	}
	if attempts > 1 {
		p.logger.WithFields(fields).WithField("attempt", attempts).Info("cart event published after retry")
	}
}
