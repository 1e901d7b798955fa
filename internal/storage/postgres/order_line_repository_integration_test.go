package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
)

func TestOrderLineRepository_PostgresAppendAndList(t *testing.T) {
	store := migratedStoreForIntegrationTest(t)
	repo := NewOrderLineRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	input := []domain.RawOrderLine{
		{OrderID: "order-pg-1", Product: &domain.ProductRef{Name: "قميص"}, Price: "100", Size: "M", Quantity: 2, Color: "أحمر"},
		{OrderID: "order-pg-1", Product: &domain.ProductRef{Name: "قميص"}, Price: "100", Size: "L", Quantity: 1, Color: "أحمر"},
		{OrderID: "order-pg-1", ProductDetails: `{"name":"بنطلون","price":"50","size":"32"}`},
		{OrderID: "order-pg-2", ProductDetails: "منتج خاص"},
	}
	for _, line := range input {
		if _, err := repo.Append(ctx, line); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	lines, err := repo.ListByOrder(ctx, "order-pg-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].ProductName() != "قميص" || lines[0].Size != "M" {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[2].Product != nil || lines[2].ProductDetails == "" {
		t.Fatalf("expected details without catalog product: %+v", lines[2])
	}

	items := orderitems.FormatOrderItems(lines)
	if len(items) != 2 || items[0].TotalQuantity != 3 {
		t.Fatalf("unexpected grouping of stored lines: %+v", items)
	}
}

func TestOrderLineRepository_PostgresValidation(t *testing.T) {
	store := migratedStoreForIntegrationTest(t)
	repo := NewOrderLineRepository(store)

	if _, err := repo.Append(context.Background(), domain.RawOrderLine{}); !errors.Is(err, domain.ErrOrderIDRequired) {
		t.Fatalf("expected ErrOrderIDRequired, got %v", err)
	}
	lines, err := repo.ListByOrder(context.Background(), "missing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(lines))
	}
}

func TestOrderLineRepository_PostgresJoinsCatalogProducts(t *testing.T) {
	store := migratedStoreForIntegrationTest(t)
	repo := NewOrderLineRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dressID := seedProduct(t, store, "فستان")
	seedOrderItem(t, store, "order-cat", dressID, 2, "75", "S", "أزرق")
	seedOrderItem(t, store, "order-cat", dressID, 0, "75", "M", "أزرق")
	seedOrderItem(t, store, "order-cat", "", 1, "10", "", "")

	lines, err := repo.ListByOrder(ctx, "order-cat")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].ProductName() != "فستان" || lines[1].ProductName() != "فستان" {
		t.Fatalf("catalog name was not joined: %+v", lines[:2])
	}
	if lines[2].Product != nil {
		t.Fatalf("line without product_id must have no product: %+v", lines[2])
	}

	items := orderitems.FormatOrderItems(lines)
	if len(items) != 2 {
		t.Fatalf("expected 2 groups, got %+v", items)
	}
	if items[0].Name != "فستان" || items[0].TotalQuantity != 3 || orderitems.FormatSizesDisplay(items[0].Sizes) != "S×2، M" {
		t.Fatalf("unexpected catalog group: %+v", items[0])
	}
	if items[1].Name != domain.DeletedProductName {
		t.Fatalf("expected deleted-product fallback, got %q", items[1].Name)
	}

	// Удаление товара из каталога обнуляет product_id, позиции остаются.
	if _, err := store.DB().ExecContext(ctx, `DELETE FROM products WHERE id = $1`, dressID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	lines, err = repo.ListByOrder(ctx, "order-cat")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	items = orderitems.FormatOrderItems(lines)
	if len(lines) != 3 || len(items) != 2 || items[0].Name != domain.DeletedProductName || items[0].TotalQuantity != 3 {
		t.Fatalf("unexpected grouping after product delete: %+v", items)
	}
}
