package app

import (
	"context"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"
)

// ShopService reads and updates the shop profile.
type ShopService struct {
	facade *persistence.Facade
}

// NewShopService creates a new shop service.
func NewShopService(f *persistence.Facade) *ShopService {
	return &ShopService{facade: f}
}

// Profile returns the shop profile, installing the default on first use.
func (s *ShopService) Profile(ctx context.Context) domain.ShopProfile {
	if p := persistence.LoadSingleton(ctx, s.facade, persistence.ShopProfile); p != nil {
		return *p
	}
	return domain.SeedShopProfile()
}

// SaveProfile overwrites the shop profile.
func (s *ShopService) SaveProfile(ctx context.Context, p domain.ShopProfile) error {
	return persistence.StoreSingleton(ctx, s.facade, persistence.ShopProfile, p)
}
