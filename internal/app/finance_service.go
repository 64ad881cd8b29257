package app

import (
	"context"
	"errors"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"github.com/google/uuid"
)

// ErrInvalidRecordType indicates a financial record that is neither income nor expense.
var ErrInvalidRecordType = errors.New("record type must be income or expense")

// FinanceService keeps the income and expense ledger.
type FinanceService struct {
	facade *persistence.Facade
}

// NewFinanceService creates a new finance service.
func NewFinanceService(f *persistence.Facade) *FinanceService {
	return &FinanceService{facade: f}
}

// List returns every financial record.
func (s *FinanceService) List(ctx context.Context) []domain.FinancialRecord {
	return persistence.List(ctx, s.facade, persistence.Financials)
}

// Add stores a financial record.
func (s *FinanceService) Add(ctx context.Context, r domain.FinancialRecord) (domain.FinancialRecord, error) {
	if r.Type != domain.FinancialIncome && r.Type != domain.FinancialExpense {
		return domain.FinancialRecord{}, ErrInvalidRecordType
	}
	if r.Amount <= 0 {
		return domain.FinancialRecord{}, ErrInvalidAmount
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = s.facade.Now().UTC()
	}
	if err := persistence.Save(ctx, s.facade, persistence.Financials, r); err != nil {
		return domain.FinancialRecord{}, err
	}
	return r, nil
}
