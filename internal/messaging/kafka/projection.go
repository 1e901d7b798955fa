package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// SummaryBuilder строит сводку заказа по его позициям.
type SummaryBuilder interface {
	Summary(ctx context.Context, orderID string) (domain.OrderSummary, error)
}

// NewSummaryProjection возвращает обработчик order.created: строит сводку и публикует её.
// Прочие типы событий пропускаются.
func NewSummaryProjection(builder SummaryBuilder, publisher domain.SummaryPublisher, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.WithField("component", "summary-projection")
	}

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		event, err := ParseOrderEvent(message)
		if err != nil {
			return err
		}
		if event.EventType != EventTypeOrderCreated {
			return nil
		}

		orderID := strings.TrimSpace(event.OrderID)
		if orderID == "" {
			orderID = strings.TrimSpace(string(message.Key))
		}
		if orderID == "" {
			logger.WithField("offset", message.Offset).Warn("order.created event without order id skipped")
			return nil
		}

		summary, err := builder.Summary(ctx, orderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				// Позиции ещё не записаны: повторная обработка не поможет.
				logger.WithField("order_id", orderID).Warn("order has no lines, summary skipped")
				return nil
			}
			return fmt.Errorf("build summary for %s: %w", orderID, err)
		}

		if err := publisher.PublishSummary(ctx, summary); err != nil {
			return fmt.Errorf("publish summary for %s: %w", orderID, err)
		}

		logger.WithFields(log.Fields{
			"order_id": orderID,
			"groups":   len(summary.Items),
		}).Info("order summary published")
		return nil
	}
}
