package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

// EventType определяет тип события корзины.
type EventType string

const (
	EventTypeProductAdded   EventType = "cart.product_added"
	EventTypeProductRemoved EventType = "cart.product_removed"
	EventTypeAmountUpdated  EventType = "cart.amount_updated"
)

// TopicCartEvents — topic событий корзины.
const TopicCartEvents = "shopcart.cart.events"

// Kafka headers.
const (
	HeaderEventType = "x-event-type"
	HeaderEventID   = "x-event-id"
)

// CartLine — позиция корзины в событии.
type CartLine struct {
	ProductID int `json:"product_id"`
	Amount    int `json:"amount"`
}

// CartEvent описывает успешно применённое изменение корзины.
type CartEvent struct {
	EventID   string     `json:"event_id"`
	EventType EventType  `json:"event_type"`
	CartKey   string     `json:"cart_key"`
	ProductID int        `json:"product_id"`
	Amount    int        `json:"amount"`
	Units     int        `json:"units"`
	Lines     []CartLine `json:"lines"`
	Timestamp time.Time  `json:"timestamp"`
}

// EventTypeFor сопоставляет операцию корзины типу события.
func EventTypeFor(op domain.Operation) (EventType, bool) {
	switch op {
	case domain.OperationAdd:
		return EventTypeProductAdded, true
	case domain.OperationRemove:
		return EventTypeProductRemoved, true
	case domain.OperationUpdate:
		return EventTypeAmountUpdated, true
	default:
		return "", false
	}
}

// NewCartEvent строит событие по изменению корзины.
func NewCartEvent(cartKey string, change domain.CartChange) (*CartEvent, bool) {
	eventType, ok := EventTypeFor(change.Operation)
	if !ok {
		return nil, false
	}

	lines := make([]CartLine, 0, len(change.Cart))
	for _, item := range change.Cart {
		lines = append(lines, CartLine{ProductID: item.ID, Amount: item.Amount})
	}

	return &CartEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		CartKey:   cartKey,
		ProductID: change.ProductID,
		Amount:    change.Amount,
		Units:     change.Cart.TotalUnits(),
		Lines:     lines,
		Timestamp: time.Now().UTC(),
	}, true
}
