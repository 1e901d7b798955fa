package domain

import "context"

// OrderLineRepository хранит сырые позиции заказов.
type OrderLineRepository interface {
	// ListByOrder возвращает позиции заказа в порядке добавления; пустой список, если их нет.
	ListByOrder(ctx context.Context, orderID string) ([]RawOrderLine, error)
	// Append сохраняет позицию и возвращает её с заполненными ID и CreatedAt.
	Append(ctx context.Context, line RawOrderLine) (RawOrderLine, error)
}

// CashboxRepository хранит ежедневные кассы.
type CashboxRepository interface {
	// GetByDate возвращает кассу за дату или ErrCashboxNotFound.
	GetByDate(ctx context.Context, businessDate string) (Cashbox, error)
	// Create сохраняет новую кассу или возвращает ErrCashboxAlreadyExists.
	Create(ctx context.Context, cashbox Cashbox) error
}

// SummaryPublisher публикует готовые сводки заказов во внешний брокер.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, summary OrderSummary) error
}
