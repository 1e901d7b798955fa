package orderview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
)

// Service собирает сводки заказов из сырых позиций.
type Service struct {
	lines   domain.OrderLineRepository
	metrics *metrics.FormatterMetrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics задаёт метрики группировки.
func WithMetrics(m *metrics.FormatterMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис сводок заказов.
func NewService(lines domain.OrderLineRepository, opts ...Option) *Service {
	s := &Service{
		lines:  lines,
		logger: log.WithField("component", "order-view"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary загружает позиции заказа и группирует их.
// Возвращает ErrOrderNotFound, если у заказа нет позиций.
func (s *Service) Summary(ctx context.Context, orderID string) (domain.OrderSummary, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.OrderSummary{}, domain.ErrOrderIDRequired
	}

	lines, err := s.lines.ListByOrder(ctx, orderID)
	if err != nil {
		s.metrics.RecordSummary("error")
		return domain.OrderSummary{}, fmt.Errorf("list order lines: %w", err)
	}
	if len(lines) == 0 {
		s.metrics.RecordSummary("not_found")
		return domain.OrderSummary{}, domain.ErrOrderNotFound
	}

	summary := s.summarize("summary", orderID, lines)
	s.metrics.RecordSummary("ok")
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"lines":    summary.LineCount,
		"groups":   len(summary.Items),
	}).Debug("order summary built")
	return summary, nil
}

// Format группирует произвольный набор позиций без обращения к хранилищу.
func (s *Service) Format(lines []domain.RawOrderLine) domain.OrderSummary {
	return s.summarize("format", "", lines)
}

// AppendLine проверяет и сохраняет позицию заказа.
func (s *Service) AppendLine(ctx context.Context, line domain.RawOrderLine) (domain.RawOrderLine, error) {
	if errs := line.Validate(); len(errs) > 0 {
		return domain.RawOrderLine{}, errors.Join(errs...)
	}
	stored, err := s.lines.Append(ctx, line)
	if err != nil {
		return domain.RawOrderLine{}, fmt.Errorf("append order line: %w", err)
	}
	s.logger.WithFields(log.Fields{
		"order_id": stored.OrderID,
		"line_id":  stored.ID,
	}).Info("order line appended")
	return stored, nil
}

func (s *Service) summarize(operation, orderID string, lines []domain.RawOrderLine) domain.OrderSummary {
	started := time.Now()
	items, stats := orderitems.FormatOrderItemsWithStats(lines)
	s.metrics.RecordPass(operation, stats.Lines, stats.Groups, stats.JSONDetails, stats.LiteralDetails, stats.MissingDetails, time.Since(started))

	if stats.LiteralDetails > 0 {
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"literal":  stats.LiteralDetails,
		}).Debug("product details without json treated as product names")
	}

	return BuildSummary(orderID, items, len(lines), s.now())
}

// BuildSummary считает итоги по сгруппированным позициям.
func BuildSummary(orderID string, items []domain.FormattedItem, lineCount int, at time.Time) domain.OrderSummary {
	summary := domain.OrderSummary{
		OrderID:     orderID,
		Items:       items,
		LineCount:   lineCount,
		TotalPrice:  decimal.Zero,
		GeneratedAt: at,
	}
	for _, item := range items {
		summary.TotalQuantity += item.TotalQuantity
		summary.TotalPrice = summary.TotalPrice.Add(item.TotalPrice)
	}
	return summary
}
