package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cashboxRepository struct {
	db *sql.DB
}

var _ domain.CashboxRepository = (*cashboxRepository)(nil)

// NewCashboxRepository создаёт PostgreSQL-реализацию CashboxRepository.
func NewCashboxRepository(store *Store) domain.CashboxRepository {
	return &cashboxRepository{db: store.DB()}
}

func (r *cashboxRepository) GetByDate(ctx context.Context, businessDate string) (domain.Cashbox, error) {
	date, err := time.Parse(domain.BusinessDateLayout, businessDate)
	if err != nil {
		return domain.Cashbox{}, domain.ErrBusinessDateInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		cashbox domain.Cashbox
		day     time.Time
		status  string
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT id, business_date, opening_balance, status, created_at
		FROM cashboxes
		WHERE business_date = $1
	`, date).Scan(&cashbox.ID, &day, &cashbox.OpeningBalance, &status, &cashbox.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cashbox{}, domain.ErrCashboxNotFound
		}
		return domain.Cashbox{}, fmt.Errorf("get cashbox: %w", err)
	}

	cashbox.BusinessDate = day.Format(domain.BusinessDateLayout)
	cashbox.Status = domain.CashboxStatus(status)
	cashbox.CreatedAt = cashbox.CreatedAt.UTC()
	return cashbox, nil
}

// Create вставляет кассу; нарушение уникальности business_date означает, что касса уже создана.
func (r *cashboxRepository) Create(ctx context.Context, cashbox domain.Cashbox) error {
	if errs := cashbox.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	if cashbox.ID == "" {
		cashbox.ID = uuid.NewString()
	}
	if cashbox.CreatedAt.IsZero() {
		cashbox.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cashboxes (id, business_date, opening_balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, cashbox.ID, cashbox.BusinessDate, cashbox.OpeningBalance, string(cashbox.Status), cashbox.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCashboxAlreadyExists
		}
		return fmt.Errorf("insert cashbox: %w", err)
	}
	return nil
}
