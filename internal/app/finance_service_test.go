package app_test

import (
	"context"
	"testing"

	"luminapos/internal/app"
	"luminapos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinanceService(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewFinanceService(fx.facade)

	assert.Empty(t, svc.List(ctx))

	_, err := svc.Add(ctx, domain.FinancialRecord{Type: "gift", Amount: 5})
	assert.ErrorIs(t, err, app.ErrInvalidRecordType)
	_, err = svc.Add(ctx, domain.FinancialRecord{Type: domain.FinancialExpense, Amount: 0})
	assert.ErrorIs(t, err, app.ErrInvalidAmount)

	r, err := svc.Add(ctx, domain.FinancialRecord{Type: domain.FinancialExpense, Category: "Supplies", Amount: 25000})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fx.clock.now, r.Date)

	list := svc.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Supplies", list[0].Category)
}

func TestShopService(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewShopService(fx.facade)

	assert.Equal(t, domain.SeedShopProfile(), svc.Profile(ctx))

	p := domain.ShopProfile{Name: "Warung", Address: "Jl. Mawar 1", Phone: "0811", FooterMessage: "Terima kasih"}
	require.NoError(t, svc.SaveProfile(ctx, p))
	assert.Equal(t, p, svc.Profile(ctx))
}
