package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderLineRepository struct {
	db *sql.DB
}

var _ domain.OrderLineRepository = (*orderLineRepository)(nil)

// NewOrderLineRepository создаёт PostgreSQL-реализацию OrderLineRepository.
func NewOrderLineRepository(store *Store) domain.OrderLineRepository {
	return &orderLineRepository{db: store.DB()}
}

// ListByOrder читает позиции заказа вместе с названием товара из каталога (LEFT JOIN products).
func (r *orderLineRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.RawOrderLine, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrOrderIDRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.quantity, oi.price, oi.size, oi.color,
		       oi.product_details, p.name, oi.created_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.seq ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.RawOrderLine, 0)
	for rows.Next() {
		var (
			line        domain.RawOrderLine
			details     sql.NullString
			productName sql.NullString
		)
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.Quantity, &line.Price, &line.Size, &line.Color,
			&details, &productName, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		line.ProductDetails = details.String
		if productName.Valid && productName.String != "" {
			line.Product = &domain.ProductRef{Name: productName.String}
		}
		line.CreatedAt = line.CreatedAt.UTC()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return lines, nil
}

// Append сохраняет позицию. Если задано название товара, товар находится или создаётся в каталоге.
func (r *orderLineRepository) Append(ctx context.Context, line domain.RawOrderLine) (stored domain.RawOrderLine, err error) {
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

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RawOrderLine{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var productID sql.NullString
	if name := line.ProductName(); name != "" {
		var id string
		err = tx.QueryRowContext(ctx, `
			INSERT INTO products (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, uuid.NewString(), name).Scan(&id)
		if err != nil {
			return domain.RawOrderLine{}, fmt.Errorf("upsert product: %w", err)
		}
		productID = sql.NullString{String: id, Valid: true}
	}

	details := sql.NullString{String: line.ProductDetails, Valid: line.ProductDetails != ""}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO order_items (
			id, order_id, product_id, quantity, price, size, color, product_details, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		line.ID, line.OrderID, productID, line.Quantity, line.Price, line.Size, line.Color, details, line.CreatedAt,
	); err != nil {
		return domain.RawOrderLine{}, fmt.Errorf("insert order item: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.RawOrderLine{}, fmt.Errorf("commit order item: %w", err)
	}
	return line, nil
}
