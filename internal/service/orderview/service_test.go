package orderview_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/orderview"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func loggerForTests() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func newService(t *testing.T, repo domain.OrderLineRepository) *orderview.Service {
	t.Helper()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return orderview.NewService(repo,
		orderview.WithLogger(loggerForTests()),
		orderview.WithMetrics(metrics.NewFormatterMetricsWithRegisterer(prometheus.NewRegistry())),
		orderview.WithClock(func() time.Time { return fixed }),
	)
}

func TestSummary_GroupsStoredLines(t *testing.T) {
	repo := memory.NewOrderLineRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	for _, line := range []domain.RawOrderLine{
		{OrderID: "order-1", Product: &domain.ProductRef{Name: "قميص"}, Price: "100", Size: "M", Quantity: 2, Color: "أحمر"},
		{OrderID: "order-1", Product: &domain.ProductRef{Name: "قميص"}, Price: "100", Size: "L", Quantity: 1, Color: "أحمر"},
		{OrderID: "order-1", ProductDetails: `{"name":"بنطلون","price":"50","size":"32"}`},
	} {
		if _, err := svc.AppendLine(ctx, line); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	summary, err := svc.Summary(ctx, "order-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.OrderID != "order-1" || summary.LineCount != 3 {
		t.Fatalf("unexpected summary header: %+v", summary)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(summary.Items))
	}
	if summary.TotalQuantity != 4 {
		t.Fatalf("expected total quantity 4, got %d", summary.TotalQuantity)
	}
	if !summary.TotalPrice.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected total price 350, got %s", summary.TotalPrice)
	}
	if summary.GeneratedAt.IsZero() {
		t.Fatal("expected generated_at to be set")
	}
}

func TestSummary_NotFoundAndValidation(t *testing.T) {
	svc := newService(t, memory.NewOrderLineRepository())

	if _, err := svc.Summary(context.Background(), "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.Summary(context.Background(), " "); !errors.Is(err, domain.ErrOrderIDRequired) {
		t.Fatalf("expected ErrOrderIDRequired, got %v", err)
	}
}

func TestSummary_RepositoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := newService(t, failingRepo{err: boom})

	if _, err := svc.Summary(context.Background(), "order-1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestFormat_AdHocLines(t *testing.T) {
	svc := newService(t, memory.NewOrderLineRepository())

	summary := svc.Format([]domain.RawOrderLine{{Price: "20"}, {Price: "30"}})
	if len(summary.Items) != 1 || summary.Items[0].Name != domain.DeletedProductName {
		t.Fatalf("unexpected items: %+v", summary.Items)
	}
	if !summary.TotalPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected price fixed by first line (40), got %s", summary.TotalPrice)
	}
}

func TestAppendLine_Validation(t *testing.T) {
	svc := newService(t, memory.NewOrderLineRepository())

	if _, err := svc.AppendLine(context.Background(), domain.RawOrderLine{}); !errors.Is(err, domain.ErrOrderIDRequired) {
		t.Fatalf("expected ErrOrderIDRequired, got %v", err)
	}
}

type failingRepo struct {
	err error
}

func (f failingRepo) ListByOrder(context.Context, string) ([]domain.RawOrderLine, error) {
	return nil, f.err
}

func (f failingRepo) Append(context.Context, domain.RawOrderLine) (domain.RawOrderLine, error) {
	return domain.RawOrderLine{}, f.err
}
