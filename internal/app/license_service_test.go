package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"luminapos/internal/app"
	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putKey(t *testing.T, fx *fixture, k domain.AuthKey) {
	t.Helper()
	data, err := json.Marshal(k)
	require.NoError(t, err)
	require.NoError(t, fx.remote.PutDocument(context.Background(), "auth_keys", k.ID, data))
}

func remoteKey(t *testing.T, fx *fixture, id string) domain.AuthKey {
	t.Helper()
	doc, err := fx.remote.GetDocument(context.Background(), "auth_keys", id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	var k domain.AuthKey
	require.NoError(t, json.Unmarshal(doc.Data, &k))
	return k
}

func TestValidate_BindThenRejectOtherDevice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")
	putKey(t, fx, domain.NewAuthKey("k1", "KSR-AAAA-BBBB-CCCC", domain.DurationYearly, 0, fx.clock.now))

	res, err := svc.Validate(ctx, "KSR-AAAA-BBBB-CCCC", "D1")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	k := remoteKey(t, fx, "k1")
	assert.Equal(t, 1, k.UsageCount)
	require.NotNil(t, k.DeviceID)
	assert.Equal(t, "D1", *k.DeviceID)

	res, err = svc.Validate(ctx, "KSR-AAAA-BBBB-CCCC", "D1")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 2, remoteKey(t, fx, "k1").UsageCount)

	res, err = svc.Validate(ctx, "KSR-AAAA-BBBB-CCCC", "D2")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.ReasonDeviceMismatch, res.Reason)
	assert.Contains(t, res.Message, "another device")
	assert.Equal(t, 2, remoteKey(t, fx, "k1").UsageCount)
}

func TestValidate_Order(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")

	revokedExpired := domain.NewAuthKey("k1", "REVOKED-EXPIRED", domain.DurationWeekly, 0, fx.clock.now.AddDate(-1, 0, 0))
	revokedExpired.IsActive = false
	putKey(t, fx, revokedExpired)
	putKey(t, fx, domain.NewAuthKey("k2", "EXPIRED", domain.DurationWeekly, 0, fx.clock.now.AddDate(0, -1, 0)))

	res, err := svc.Validate(ctx, "missing", "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonInvalidKey, res.Reason)
	assert.Equal(t, "Invalid Key ID", res.Message)

	res, err = svc.Validate(ctx, "REVOKED-EXPIRED", "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonKeyRevoked, res.Reason)

	res, err = svc.Validate(ctx, "EXPIRED", "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonKeyExpired, res.Reason)
	assert.Equal(t, 0, remoteKey(t, fx, "k2").UsageCount)

	res, err = svc.Validate(ctx, "expired", "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonInvalidKey, res.Reason, "lookup is case-sensitive")
}

func TestRevokeThenValidate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")

	key, err := svc.Issue(ctx, domain.DurationMonthly, 150000)
	require.NoError(t, err)
	res, err := svc.Validate(ctx, key.Key, "D1")
	require.NoError(t, err)
	require.True(t, res.Valid)

	require.NoError(t, svc.Revoke(ctx, key.ID))
	res, err = svc.Validate(ctx, key.Key, "D1")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "revoked")

	k := remoteKey(t, fx, key.ID)
	assert.False(t, k.IsActive)
	require.NotNil(t, k.DeviceID, "revocation keeps the binding")
	assert.Equal(t, "D1", *k.DeviceID)

	assert.ErrorIs(t, svc.Revoke(ctx, "missing"), domain.ErrNotFound)
}

func TestValidate_ConcurrentDevicesBindOnce(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")
	putKey(t, fx, domain.NewAuthKey("k1", "KSR-RACE-RACE-RACE", domain.DurationYearly, 0, fx.clock.now))

	devices := []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7", "D8"}
	results := make([]domain.ValidationResult, len(devices))
	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Validate(ctx, "KSR-RACE-RACE-RACE", d)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		} else {
			assert.Equal(t, domain.ReasonDeviceMismatch, r.Reason)
		}
	}
	assert.Equal(t, 1, valid)
	assert.Equal(t, 1, remoteKey(t, fx, "k1").UsageCount)
}

func TestValidate_OfflineUsesLocalStoreOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")
	fx.remote.FailWith(errors.New("unavailable"))

	res, err := svc.Validate(ctx, domain.DemoKey, "D9")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, persistence.Offline, fx.facade.Mode())

	keys := persistence.List(ctx, fx.facade, persistence.AuthKeys)
	require.Len(t, keys, 1)
	assert.Equal(t, 6, keys[0].UsageCount)
	require.NotNil(t, keys[0].DeviceID)
	assert.Equal(t, "D9", *keys[0].DeviceID)

	res, err = svc.Validate(ctx, domain.DemoKey, "D10")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDeviceMismatch, res.Reason)
}

func TestValidate_MasterKey(t *testing.T) {
	fx := newFixture(t)
	svc := app.NewLicenseService(fx.facade, "MASTER-1")

	res, err := svc.Validate(context.Background(), "MASTER-1", "any")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Override)
	assert.Zero(t, fx.remote.Calls())

	disabled := app.NewLicenseService(fx.facade, "")
	res, err = disabled.Validate(context.Background(), "", "any")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestIssueAndPurchase(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")

	_, err := svc.Issue(ctx, "daily", 10)
	assert.ErrorIs(t, err, app.ErrInvalidDuration)
	_, err = svc.Issue(ctx, domain.DurationWeekly, -1)
	assert.ErrorIs(t, err, app.ErrInvalidPrice)
	_, err = svc.Purchase(ctx, "lifetime")
	assert.ErrorIs(t, err, app.ErrUnknownPlan)

	k, err := svc.Purchase(ctx, domain.DurationWeekly)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, k.Price)
	assert.Equal(t, fx.clock.now.AddDate(0, 0, 7), k.ValidUntil)
	assert.True(t, k.IsActive)
	assert.Zero(t, k.UsageCount)
	assert.Nil(t, k.DeviceID)
	assert.Regexp(t, `^KSR-[0-9A-Z]{4}-[0-9A-Z]{4}-[0-9A-Z]{4}$`, k.Key)

	_, err = svc.Issue(ctx, domain.DurationYearly, 1500000)
	require.NoError(t, err)
	revoked, err := svc.Issue(ctx, domain.DurationMonthly, 150000)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, revoked.ID))

	stats := svc.Stats(ctx)
	assert.Equal(t, 1700000.0, stats.TotalRevenue)
	assert.Equal(t, 2, stats.ActiveKeys)
	assert.Equal(t, 3, stats.TotalKeys)
}

func TestList_EmptyRemoteShowsDemoKey(t *testing.T) {
	fx := newFixture(t)
	svc := app.NewLicenseService(fx.facade, "")
	keys := svc.List(context.Background())
	require.Len(t, keys, 1)
	assert.Equal(t, domain.DemoKey, keys[0].Key)
	assert.WithinDuration(t, fx.clock.now.AddDate(1, 0, 0), keys[0].ValidUntil, time.Second)
}

func TestRevoke_DemoKeyShownFromSeed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")

	keys := svc.List(ctx)
	require.Len(t, keys, 1)
	require.NoError(t, svc.Revoke(ctx, keys[0].ID))

	stored := remoteKey(t, fx, keys[0].ID)
	assert.False(t, stored.IsActive)
	assert.Equal(t, domain.DemoKey, stored.Key)

	res, err := svc.Validate(ctx, domain.DemoKey, "device-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonKeyRevoked, res.Reason)

	assert.ErrorIs(t, svc.Revoke(ctx, "no-such-key"), domain.ErrNotFound)
}

func TestAuthorize(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := app.NewLicenseService(fx.facade, "")
	putKey(t, fx, domain.NewAuthKey("k1", "KSR-AAAA-BBBB-CCCC", domain.DurationWeekly, 0, fx.clock.now))

	res, err := svc.Validate(ctx, "KSR-AAAA-BBBB-CCCC", "device-a")
	require.NoError(t, err)
	require.True(t, res.Valid)

	reason, err := svc.Authorize(ctx, "KSR-AAAA-BBBB-CCCC", "device-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNone, reason)
	assert.Equal(t, 1, remoteKey(t, fx, "k1").UsageCount)

	reason, err = svc.Authorize(ctx, "KSR-AAAA-BBBB-CCCC", "device-b")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDeviceMismatch, reason)

	reason, err = svc.Authorize(ctx, "KSR-ZZZZ-ZZZZ-ZZZZ", "device-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonInvalidKey, reason)

	require.NoError(t, svc.Revoke(ctx, "k1"))
	reason, err = svc.Authorize(ctx, "KSR-AAAA-BBBB-CCCC", "device-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonKeyRevoked, reason)

	putKey(t, fx, domain.NewAuthKey("k2", "KSR-DDDD-EEEE-FFFF", domain.DurationWeekly, 0, fx.clock.now))
	fx.clock.now = fx.clock.now.AddDate(0, 0, 8)
	reason, err = svc.Authorize(ctx, "KSR-DDDD-EEEE-FFFF", "device-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonKeyExpired, reason)
}
