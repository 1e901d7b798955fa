package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderLineRepositoryInMemory — простая in-memory реализация OrderLineRepository.
type orderLineRepositoryInMemory struct {
	mu    sync.RWMutex
	lines map[string][]domain.RawOrderLine
}

var _ domain.OrderLineRepository = (*orderLineRepositoryInMemory)(nil)

// NewOrderLineRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderLineRepository() domain.OrderLineRepository {
	return &orderLineRepositoryInMemory{
		lines: make(map[string][]domain.RawOrderLine),
	}
}

// ListByOrder возвращает копии позиций заказа в порядке добавления.
func (r *orderLineRepositoryInMemory) ListByOrder(ctx context.Context, orderID string) ([]domain.RawOrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrOrderIDRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.lines[orderID]
	result := make([]domain.RawOrderLine, 0, len(stored))
	for _, line := range stored {
		result = append(result, cloneLine(line))
	}
	return result, nil
}

// Append сохраняет позицию, проставляя ID и CreatedAt, если они не заданы.
func (r *orderLineRepositoryInMemory) Append(ctx context.Context, line domain.RawOrderLine) (domain.RawOrderLine, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawOrderLine{}, err
	}
	line.OrderID = strings.TrimSpace(line.OrderID)
	if errs := line.Validate(); len(errs) > 0 {
		return domain.RawOrderLine{}, errors.Join(errs...)
	}

	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[line.OrderID] = append(r.lines[line.OrderID], cloneLine(line))
	return cloneLine(line), nil
}

func cloneLine(line domain.RawOrderLine) domain.RawOrderLine {
	if line.Product != nil {
		product := *line.Product
		line.Product = &product
	}
	return line
}
