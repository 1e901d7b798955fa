package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// SummaryTopicPublisher публикует сводки заказов в заданный topic с ключом order_id.
type SummaryTopicPublisher struct {
	producer *Producer
	topic    string
}

var _ domain.SummaryPublisher = (*SummaryTopicPublisher)(nil)

// NewSummaryPublisher создаёт паблишер сводок.
func NewSummaryPublisher(producer *Producer, topic string) *SummaryTopicPublisher {
	if topic == "" {
		topic = TopicOrderSummaries
	}
	return &SummaryTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishSummary отправляет событие order.items.summarized.
func (p *SummaryTopicPublisher) PublishSummary(ctx context.Context, summary domain.OrderSummary) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka summary publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := []sarama.RecordHeader{{
		Key:   []byte(HeaderEventType),
		Value: []byte(EventTypeOrderItemsSummarized),
	}}
	return p.producer.publish(p.topic, summary.OrderID, NewSummaryEvent(summary), headers)
}
