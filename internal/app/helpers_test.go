package app_test

import (
	"testing"
	"time"

	"luminapos/internal/adapter/memory"
	"luminapos/internal/persistence"

	"go.uber.org/zap"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	facade *persistence.Facade
	remote *memory.DB
	cache  *memory.Cache
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		remote: memory.New(),
		cache:  memory.NewCache(),
		clock:  &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	fx.facade = persistence.New(fx.remote, fx.cache, zap.NewNop(), persistence.WithClock(fx.clock.Now))
	return fx
}
