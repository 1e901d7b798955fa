package kafka

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func newTestProducer(mockProducer sarama.SyncProducer) *Producer {
	return &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}
}

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newTestProducer(mockProducer)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event OrderEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.OrderID != "order-123" || event.EventType != EventTypeOrderCreated {
			return fmt.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	event := NewOrderEvent(EventTypeOrderCreated, "order-123", map[string]interface{}{"source": "checkout"})
	if err := producer.PublishEvent(TopicOrderEvents, "order-123", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newTestProducer(mockProducer)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewOrderEvent(EventTypeOrderCreated, "order-123", nil)
	if err := producer.PublishEvent(TopicOrderEvents, "order-123", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newTestProducer(mockProducer)

	if err := producer.PublishEvent(TopicOrderEvents, "k", map[string]interface{}{"bad": make(chan int)}); err == nil {
		t.Fatal("expected marshal error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewOrderEvent(t *testing.T) {
	metadata := map[string]interface{}{"source": "checkout"}

	event := NewOrderEvent(EventTypeOrderCreated, "order-123", metadata)

	if event.EventType != EventTypeOrderCreated {
		t.Errorf("expected event type %s, got %s", EventTypeOrderCreated, event.EventType)
	}
	if event.OrderID != "order-123" {
		t.Errorf("expected order id order-123, got %s", event.OrderID)
	}
	if event.Metadata["source"] != "checkout" {
		t.Error("metadata not set correctly")
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}

func TestProducerConfig(t *testing.T) {
	config := ProducerConfig()
	if !config.Producer.Idempotent || config.Net.MaxOpenRequests != 1 {
		t.Fatalf("producer must be idempotent with a single in-flight request: %+v", config.Producer)
	}
	if config.ClientID != clientID {
		t.Fatalf("unexpected client id %q", config.ClientID)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("producer config must be valid: %v", err)
	}
}
