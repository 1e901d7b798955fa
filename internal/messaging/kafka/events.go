package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// EventTypeOrderCreated публикует витрина после оформления заказа.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeOrderItemsSummarized публикует этот сервис со сгруппированными позициями.
	EventTypeOrderItemsSummarized EventType = "order.items.summarized"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicOrderSummaries  = "storefront.order.summaries"
	TopicDeadLetterQueue = "storefront.dlq"
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
	HeaderEventType     = "x-event-type"
)

// OrderEvent — входящее событие заказа.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SummaryEvent — исходящее событие со сводкой позиций заказа.
type SummaryEvent struct {
	EventType     EventType              `json:"event_type"`
	OrderID       string                 `json:"order_id"`
	Items         []domain.FormattedItem `json:"items"`
	LineCount     int                    `json:"line_count"`
	TotalQuantity int                    `json:"total_quantity"`
	TotalPrice    json.Number            `json:"total_price"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Timestamp     time.Time              `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// NewSummaryEvent упаковывает сводку заказа в событие.
func NewSummaryEvent(summary domain.OrderSummary) *SummaryEvent {
	items := summary.Items
	if items == nil {
		items = []domain.FormattedItem{}
	}
	return &SummaryEvent{
		EventType:     EventTypeOrderItemsSummarized,
		OrderID:       summary.OrderID,
		Items:         items,
		LineCount:     summary.LineCount,
		TotalQuantity: summary.TotalQuantity,
		TotalPrice:    json.Number(summary.TotalPrice.String()),
		GeneratedAt:   summary.GeneratedAt,
		Timestamp:     time.Now().UTC(),
	}
}
