package domain_test

import (
	"testing"
	"time"

	"luminapos/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDebtRecord_PaymentsDeriveStatus(t *testing.T) {
	d := domain.DebtRecord{ID: "d1", CustomerName: "Budi", Amount: 100000, Status: domain.DebtUnpaid}
	assert.Equal(t, domain.DebtUnpaid, d.DeriveStatus())

	d.ApplyPayment(40000, time.Now())
	assert.Equal(t, domain.DebtPartial, d.Status)

	d.ApplyPayment(60000, time.Now())
	assert.Equal(t, domain.DebtPaid, d.Status)
	assert.Len(t, d.Payments, 2)
	assert.Equal(t, 100000.0, d.Paid())
}

func TestDebtRecord_Overpaid(t *testing.T) {
	d := domain.DebtRecord{Amount: 10}
	d.ApplyPayment(25, time.Now())
	assert.Equal(t, domain.DebtPaid, d.Status)
}

func TestProductDecrementStock(t *testing.T) {
	p := domain.Product{Stock: 3}
	p.DecrementStock(2)
	assert.Equal(t, 1, p.Stock)
	p.DecrementStock(5)
	assert.Equal(t, 0, p.Stock)
}

func TestSeedProducts(t *testing.T) {
	ps := domain.SeedProducts()
	assert.Len(t, ps, 6)
	assert.Equal(t, "1", ps[0].ID)
	assert.Equal(t, "Cosmic Latte", ps[0].Name)
	assert.Equal(t, "6", ps[5].ID)
}
