package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

func testEvent() *CartEvent {
	event, _ := NewCartEvent(domain.CartStorageKey, domain.CartChange{
		Operation: domain.OperationAdd,
		ProductID: 1,
		Amount:    1,
		Cart:      domain.Cart{{ID: 1, Amount: 1}},
	})
	return event
}

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, log.WithField("component", "kafka-producer-test"))

	event := testEvent()
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicCartEvents {
			t.Errorf("unexpected topic %q", msg.Topic)
		}
		var headerType string
		for _, h := range msg.Headers {
			if string(h.Key) == HeaderEventType {
				headerType = string(h.Value)
			}
		}
		if headerType != string(EventTypeProductAdded) {
			t.Errorf("unexpected event type header %q", headerType)
		}
		return nil
	})
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var decoded CartEvent
		if err := json.Unmarshal(val, &decoded); err != nil {
			return err
		}
		if decoded.EventID != event.EventID {
			t.Errorf("unexpected event id %q", decoded.EventID)
		}
		return nil
	})

	if err := producer.PublishEvent(TopicCartEvents, domain.CartStorageKey, event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := producer.PublishEvent(TopicCartEvents, domain.CartStorageKey, event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	if err := producer.PublishEvent(TopicCartEvents, domain.CartStorageKey, testEvent()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewCartEvent(t *testing.T) {
	change := domain.CartChange{
		Operation: domain.OperationUpdate,
		ProductID: 2,
		Amount:    3,
		Cart:      domain.Cart{{ID: 1, Amount: 1}, {ID: 2, Amount: 3}},
	}

	event, ok := NewCartEvent("slot", change)
	if !ok {
		t.Fatal("expected event for update")
	}
	if event.EventType != EventTypeAmountUpdated {
		t.Errorf("expected %s, got %s", EventTypeAmountUpdated, event.EventType)
	}
	if event.EventID == "" {
		t.Error("expected event id")
	}
	if event.Units != 4 || len(event.Lines) != 2 {
		t.Errorf("unexpected totals: units=%d lines=%d", event.Units, len(event.Lines))
	}
	if event.CartKey != "slot" || event.ProductID != 2 || event.Amount != 3 {
		t.Errorf("unexpected event: %+v", event)
	}

	other, _ := NewCartEvent("slot", change)
	if other.EventID == event.EventID {
		t.Error("event ids must be unique")
	}

	if _, ok := NewCartEvent("slot", domain.CartChange{Operation: "checkout"}); ok {
		t.Error("unknown operation must not produce an event")
	}
}
