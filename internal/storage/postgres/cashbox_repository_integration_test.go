package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestCashboxRepository_PostgresCreateGet(t *testing.T) {
	store := migratedStoreForIntegrationTest(t)
	repo := NewCashboxRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := repo.GetByDate(ctx, "2024-05-01"); !errors.Is(err, domain.ErrCashboxNotFound) {
		t.Fatalf("expected ErrCashboxNotFound, got %v", err)
	}

	cashbox := domain.Cashbox{
		BusinessDate:   "2024-05-01",
		OpeningBalance: decimal.RequireFromString("150.50"),
		Status:         domain.CashboxStatusOpen,
	}
	if err := repo.Create(ctx, cashbox); err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, err := repo.GetByDate(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.BusinessDate != "2024-05-01" || stored.Status != domain.CashboxStatusOpen {
		t.Fatalf("unexpected cashbox: %+v", stored)
	}
	if !stored.OpeningBalance.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("unexpected opening balance: %s", stored.OpeningBalance)
	}

	if err := repo.Create(ctx, cashbox); !errors.Is(err, domain.ErrCashboxAlreadyExists) {
		t.Fatalf("expected ErrCashboxAlreadyExists, got %v", err)
	}
}

func TestCashboxRepository_PostgresInvalidDate(t *testing.T) {
	store := migratedStoreForIntegrationTest(t)
	repo := NewCashboxRepository(store)

	if _, err := repo.GetByDate(context.Background(), "05/01/2024"); !errors.Is(err, domain.ErrBusinessDateInvalid) {
		t.Fatalf("expected ErrBusinessDateInvalid, got %v", err)
	}
}
