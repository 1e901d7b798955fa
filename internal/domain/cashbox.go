package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BusinessDateLayout — формат даты кассового дня.
const BusinessDateLayout = "2006-01-02"

// CashboxStatus описывает состояние кассы за день.
type CashboxStatus string

const (
	// CashboxStatusOpen — касса открыта и принимает платежи.
	CashboxStatusOpen CashboxStatus = "open"
	// CashboxStatusClosed — день закрыт, остаток зафиксирован.
	CashboxStatusClosed CashboxStatus = "closed"
)

// Cashbox — ежедневная касса магазина. На одну дату существует ровно одна касса.
type Cashbox struct {
	ID             string
	BusinessDate   string
	OpeningBalance decimal.Decimal
	Status         CashboxStatus
	CreatedAt      time.Time
}

// Validate проверяет поля кассы перед сохранением.
func (c *Cashbox) Validate() []error {
	var errs []error
	if _, err := time.Parse(BusinessDateLayout, c.BusinessDate); err != nil {
		errs = append(errs, ErrBusinessDateInvalid)
	}
	if c.OpeningBalance.IsNegative() {
		errs = append(errs, ErrOpeningBalanceNegative)
	}
	if !c.Status.Valid() {
		errs = append(errs, ErrCashboxStatusInvalid)
	}
	return errs
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s CashboxStatus) Valid() bool {
	switch s {
	case CashboxStatusOpen, CashboxStatusClosed:
		return true
	default:
		return false
	}
}
