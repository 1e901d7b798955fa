package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cashboxRepositoryInMemory struct {
	mu     sync.RWMutex
	byDate map[string]domain.Cashbox
}

var _ domain.CashboxRepository = (*cashboxRepositoryInMemory)(nil)

// NewCashboxRepository создаёт in-memory реализацию CashboxRepository.
func NewCashboxRepository() domain.CashboxRepository {
	return &cashboxRepositoryInMemory{
		byDate: make(map[string]domain.Cashbox),
	}
}

func (r *cashboxRepositoryInMemory) GetByDate(ctx context.Context, businessDate string) (domain.Cashbox, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cashbox{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cashbox, ok := r.byDate[businessDate]
	if !ok {
		return domain.Cashbox{}, domain.ErrCashboxNotFound
	}
	return cashbox, nil
}

// Create сохраняет кассу; дата кассового дня уникальна.
func (r *cashboxRepositoryInMemory) Create(ctx context.Context, cashbox domain.Cashbox) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if errs := cashbox.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	if cashbox.ID == "" {
		cashbox.ID = uuid.NewString()
	}
	if cashbox.CreatedAt.IsZero() {
		cashbox.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byDate[cashbox.BusinessDate]; exists {
		return domain.ErrCashboxAlreadyExists
	}
	r.byDate[cashbox.BusinessDate] = cashbox
	return nil
}
