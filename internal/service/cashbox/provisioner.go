package cashbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Provisioner гарантирует наличие кассы на текущий кассовый день.
type Provisioner struct {
	repo           domain.CashboxRepository
	location       *time.Location
	openingBalance decimal.Decimal
	metrics        *metrics.CashboxMetrics
	logger         *log.Entry
}

// NewProvisioner создаёт провижинер. location определяет границу кассового дня; nil означает UTC.
func NewProvisioner(repo domain.CashboxRepository, location *time.Location, openingBalance decimal.Decimal, m *metrics.CashboxMetrics, logger *log.Entry) *Provisioner {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.WithField("component", "cashbox")
	}
	return &Provisioner{
		repo:           repo,
		location:       location,
		openingBalance: openingBalance,
		metrics:        m,
		logger:         logger,
	}
}

// BusinessDate возвращает дату кассового дня для момента at.
func (p *Provisioner) BusinessDate(at time.Time) string {
	return at.In(p.location).Format(domain.BusinessDateLayout)
}

// EnsureForDay возвращает кассу за день момента at, создавая её при отсутствии.
// created == true, если касса была создана этим вызовом.
func (p *Provisioner) EnsureForDay(ctx context.Context, at time.Time) (domain.Cashbox, bool, error) {
	date := p.BusinessDate(at)

	existing, err := p.repo.GetByDate(ctx, date)
	if err == nil {
		p.metrics.RecordRun("existing")
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrCashboxNotFound) {
		p.metrics.RecordRun("error")
		return domain.Cashbox{}, false, fmt.Errorf("get cashbox %s: %w", date, err)
	}

	cashbox := domain.Cashbox{
		BusinessDate:   date,
		OpeningBalance: p.openingBalance,
		Status:         domain.CashboxStatusOpen,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.repo.Create(ctx, cashbox); err != nil {
		if !errors.Is(err, domain.ErrCashboxAlreadyExists) {
			p.metrics.RecordRun("error")
			return domain.Cashbox{}, false, fmt.Errorf("create cashbox %s: %w", date, err)
		}
		// Кассу успела создать другая реплика.
		p.metrics.RecordConflict()
		winner, getErr := p.repo.GetByDate(ctx, date)
		if getErr != nil {
			p.metrics.RecordRun("error")
			return domain.Cashbox{}, false, fmt.Errorf("reload cashbox %s: %w", date, getErr)
		}
		p.metrics.RecordRun("existing")
		return winner, false, nil
	}

	stored, err := p.repo.GetByDate(ctx, date)
	if err != nil {
		p.metrics.RecordRun("error")
		return domain.Cashbox{}, false, fmt.Errorf("reload cashbox %s: %w", date, err)
	}

	p.metrics.RecordRun("created")
	p.metrics.RecordCreated()
	p.logger.WithFields(log.Fields{
		"business_date":   date,
		"opening_balance": stored.OpeningBalance.String(),
	}).Info("daily cashbox created")
	return stored, true, nil
}
