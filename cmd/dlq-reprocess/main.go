package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	headerReplayedAt   = "x-replayed-at"
)

type config struct {
	brokers       []string
	sourceTopic   string
	fallbackTopic string
	orderID       string
	limit         int
	execute       bool
	fromNewest    bool
	keepRetries   bool
	idleTimeout   time.Duration
}

// replayMessage — исходное событие, восстановленное из записи DLQ.
type replayMessage struct {
	topic   string
	key     string
	value   []byte
	headers []sarama.RecordHeader
}

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionConsumerSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

type replayProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

type saramaConsumerAdapter struct {
	consumer sarama.Consumer
}

func (a saramaConsumerAdapter) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	return a.consumer.ConsumePartition(topic, partition, offset)
}

func (a saramaConsumerAdapter) Close() error {
	if a.consumer == nil {
		return nil
	}
	return a.consumer.Close()
}

var newReplayDependencies = func(cfg config) (offsetClient, partitionConsumerSource, replayProducer, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create kafka client: %w", err)
	}
	rawConsumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	consumer := saramaConsumerAdapter{consumer: rawConsumer}

	if !cfg.execute {
		return client, consumer, nil, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.brokers, kafka.ProducerConfig())
	if err != nil {
		_ = consumer.Close()
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return client, consumer, producer, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}
	if err := run(context.Background(), cfg); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: STOREFRONT_KAFKA_BROKERS)")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.fallbackTopic, "target-topic", kafka.TopicOrderEvents, "topic for records without original_topic")
	fs.StringVar(&cfg.orderID, "order-id", "", "replay only events of this order")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of DLQ records to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "publish replayed events; default is dry-run")
	fs.BoolVar(&cfg.fromNewest, "from-newest", false, "scan the newest records first (bounded by limit)")
	fs.BoolVar(&cfg.keepRetries, "keep-retries", false, "keep the original retry count instead of resetting it")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = getenv("STOREFRONT_KAFKA_BROKERS")
	}
	cfg.brokers = parseBrokers(brokersRaw)
	cfg.orderID = strings.TrimSpace(cfg.orderID)

	switch {
	case len(cfg.brokers) == 0:
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or STOREFRONT_KAFKA_BROKERS)")
	case strings.TrimSpace(cfg.sourceTopic) == "":
		return config{}, fmt.Errorf("source-topic is required")
	case strings.TrimSpace(cfg.fallbackTopic) == "":
		return config{}, fmt.Errorf("target-topic is required")
	case cfg.limit <= 0:
		return config{}, fmt.Errorf("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, fmt.Errorf("idle-timeout must be > 0")
	}
	return cfg, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, chunk := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	log.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"order_id":     cfg.orderID,
		"limit":        cfg.limit,
		"execute":      cfg.execute,
	}).Info("starting dlq replay")

	client, consumer, producer, err := newReplayDependencies(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
		if consumer != nil {
			_ = consumer.Close()
		}
		if client != nil {
			_ = client.Close()
		}
	}()

	_, err = (&replayer{cfg: cfg, client: client, consumer: consumer, producer: producer, now: time.Now}).run(ctx)
	return err
}

type replayStats struct {
	scanned  int
	replayed int
	skipped  int
}

func (s *replayStats) add(other replayStats) {
	s.scanned += other.scanned
	s.replayed += other.replayed
	s.skipped += other.skipped
}

type replayer struct {
	cfg      config
	client   offsetClient
	consumer partitionConsumerSource
	producer replayProducer
	now      func() time.Time
}

func (r *replayer) run(ctx context.Context) (replayStats, error) {
	var total replayStats
	if r.client == nil || r.consumer == nil {
		return total, fmt.Errorf("kafka client and consumer are required")
	}
	if r.cfg.execute && r.producer == nil {
		return total, fmt.Errorf("producer is required in execute mode")
	}

	partitions, err := r.client.Partitions(r.cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.cfg.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		remaining := r.cfg.limit - total.scanned
		if remaining <= 0 {
			break
		}
		stats, err := r.replayPartition(ctx, partition, remaining)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	mode := "dry-run"
	if r.cfg.execute {
		mode = "execute"
	}
	log.WithFields(log.Fields{
		"mode":     mode,
		"scanned":  total.scanned,
		"replayed": total.replayed,
		"skipped":  total.skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *replayer) replayPartition(ctx context.Context, partition int32, limit int) (replayStats, error) {
	var stats replayStats
	topic := r.cfg.sourceTopic

	oldest, err := r.client.GetOffset(topic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(topic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.cfg.fromNewest && newest-int64(limit) > oldest {
		start = newest - int64(limit)
	}

	pc, err := r.consumer.ConsumePartition(topic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	for stats.scanned < limit {
		idle := time.NewTimer(r.cfg.idleTimeout)
		select {
		case <-ctx.Done():
			idle.Stop()
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cerr := <-pc.Errors():
			idle.Stop()
			if cerr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case msg, ok := <-pc.Messages():
			idle.Stop()
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			stats.scanned++
			if err := r.handle(msg, &stats); err != nil {
				return stats, err
			}
			if msg.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func (r *replayer) handle(msg *sarama.ConsumerMessage, stats *replayStats) error {
	entry := log.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

	replay, ok := extractReplayMessage(msg, r.cfg, r.now())
	if !ok {
		stats.skipped++
		entry.Debug("dlq record skipped")
		return nil
	}

	if r.cfg.execute {
		if _, _, err := r.producer.SendMessage(&sarama.ProducerMessage{
			Topic:     replay.topic,
			Key:       sarama.StringEncoder(replay.key),
			Value:     sarama.ByteEncoder(replay.value),
			Headers:   replay.headers,
			Timestamp: r.now().UTC(),
		}); err != nil {
			return fmt.Errorf("publish replay message: %w", err)
		}
	} else {
		entry.WithFields(log.Fields{"target_topic": replay.topic, "key": replay.key}).Info("dlq replay candidate")
	}
	stats.replayed++
	return nil
}

// extractReplayMessage восстанавливает событие из записи DLQ, которую пишет kafka.Consumer.
// ok=false для чужих записей и событий других заказов при фильтре -order-id.
func extractReplayMessage(msg *sarama.ConsumerMessage, cfg config, now time.Time) (replayMessage, bool) {
	if !gjson.ValidBytes(msg.Value) {
		return replayMessage{}, false
	}
	record := gjson.ParseBytes(msg.Value)
	original := record.Get("original_value")
	if original.Type != gjson.String || original.Str == "" {
		return replayMessage{}, false
	}

	event := gjson.Parse(original.Str)
	orderID := event.Get("order_id").String()
	if cfg.orderID != "" && orderID != cfg.orderID {
		return replayMessage{}, false
	}

	topic := strings.TrimSpace(record.Get("original_topic").String())
	if topic == "" {
		topic = cfg.fallbackTopic
	}
	key := record.Get("original_key").String()
	if key == "" {
		key = orderID
	}

	retries := 0
	if cfg.keepRetries {
		retries = int(record.Get("retry_count").Int())
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(kafka.HeaderRetryCount), Value: []byte(strconv.Itoa(retries))},
		{Key: []byte(headerReplayedAt), Value: []byte(now.UTC().Format(time.RFC3339))},
	}
	if eventType := event.Get("event_type").String(); eventType != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte(kafka.HeaderEventType), Value: []byte(eventType)})
	}

	return replayMessage{
		topic:   topic,
		key:     key,
		value:   []byte(original.Str),
		headers: headers,
	}, true
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
