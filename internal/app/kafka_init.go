package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// kafkaRuntime — запущенная проекция сводок: consumer order.created и producer сводок/DLQ.
type kafkaRuntime struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
}

// initKafka поднимает проекцию, если брокеры заданы. Без брокеров возвращает nil, nil.
func initKafka(ctx context.Context, cfg Config, builder kafka.SummaryBuilder, logger *log.Entry) (*kafkaRuntime, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		return nil, err
	}

	publisher := kafka.NewSummaryPublisher(producer, cfg.KafkaSummaryTopic)
	handler := kafka.NewSummaryProjection(builder, publisher, logger.WithField("component", "summary-projection"))

	consumer, err := kafka.NewConsumerWithDLQ(
		cfg.KafkaBrokers,
		cfg.KafkaGroupID,
		[]string{cfg.KafkaOrderTopic},
		handler,
		producer,
		cfg.KafkaMaxRetries,
	)
	if err != nil {
		_ = producer.Close()
		return nil, err
	}

	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		return nil, fmt.Errorf("start kafka consumer: %w", err)
	}

	logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka summary projection started")
	return &kafkaRuntime{producer: producer, consumer: consumer}, nil
}

// closeKafka останавливает consumer и затем producer.
func closeKafka(rt *kafkaRuntime, logger *log.Entry) {
	if rt == nil {
		return
	}
	if rt.consumer != nil {
		if err := rt.consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
	}
	if rt.producer != nil {
		if err := rt.producer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}
}
