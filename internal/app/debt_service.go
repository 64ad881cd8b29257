package app

import (
	"context"
	"errors"
	"fmt"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPayment indicates a payment amount that is not positive.
	ErrInvalidPayment = errors.New("payment amount must be positive")
	// ErrInvalidAmount indicates a debt amount that is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

const defaultDebtDescription = "General Debt"

// DebtService tracks customer debts and their payments.
type DebtService struct {
	facade *persistence.Facade
}

// NewDebtService creates a new debt service.
func NewDebtService(f *persistence.Facade) *DebtService {
	return &DebtService{facade: f}
}

// List returns every debt.
func (s *DebtService) List(ctx context.Context) []domain.DebtRecord {
	return persistence.List(ctx, s.facade, persistence.Debts)
}

// Add records a new unpaid debt.
func (s *DebtService) Add(ctx context.Context, customer string, amount float64, description string) (domain.DebtRecord, error) {
	if amount <= 0 {
		return domain.DebtRecord{}, ErrInvalidAmount
	}
	if description == "" {
		description = defaultDebtDescription
	}
	d := domain.DebtRecord{
		ID:           uuid.NewString(),
		CustomerName: customer,
		Amount:       amount,
		Description:  description,
		Date:         s.facade.Now().UTC(),
		Status:       domain.DebtUnpaid,
		Payments:     []domain.Payment{},
	}
	if err := persistence.Save(ctx, s.facade, persistence.Debts, d); err != nil {
		return domain.DebtRecord{}, err
	}
	return d, nil
}

// RecordPayment appends a payment to a debt and returns the updated record.
func (s *DebtService) RecordPayment(ctx context.Context, id string, amount float64) (domain.DebtRecord, error) {
	if amount <= 0 {
		return domain.DebtRecord{}, ErrInvalidPayment
	}
	var updated domain.DebtRecord
	err := persistence.Update(ctx, s.facade, persistence.Debts, id, func(d *domain.DebtRecord) error {
		d.ApplyPayment(amount, s.facade.Now())
		updated = *d
		return nil
	})
	if err != nil {
		return domain.DebtRecord{}, fmt.Errorf("record payment on %q: %w", id, err)
	}
	return updated, nil
}
