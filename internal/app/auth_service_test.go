package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"luminapos/internal/adapter/memory"
	"luminapos/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdmin(t *testing.T, mode PasswordMode) (*AdminService, *memory.DB) {
	t.Helper()
	remote := memory.New()
	f := persistence.New(remote, memory.NewCache(), zap.NewNop())
	return NewAdminService(f, mode), remote
}

func TestAdminService_States(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdmin(t, PasswordPlain)

	assert.False(t, svc.CredentialsExist(ctx))
	assert.False(t, svc.Validate(ctx, "", ""))
	assert.ErrorIs(t, svc.Login(ctx, "admin", "pw"), ErrAdminNotConfigured)

	require.NoError(t, svc.Setup(ctx, "admin", "pw"))
	assert.True(t, svc.CredentialsExist(ctx))
	assert.ErrorIs(t, svc.Setup(ctx, "other", "pw2"), ErrAdminAlreadyConfigured)

	assert.NoError(t, svc.Login(ctx, "admin", "pw"))
	assert.ErrorIs(t, svc.Login(ctx, "admin", "PW"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Login(ctx, "Admin", "pw"), ErrInvalidCredentials)
}

func TestAdminService_SetupRequiresBothFields(t *testing.T) {
	svc, _ := newAdmin(t, PasswordPlain)
	assert.ErrorIs(t, svc.Setup(context.Background(), "admin", ""), ErrEmptyCredentials)
	assert.ErrorIs(t, svc.Setup(context.Background(), "", "pw"), ErrEmptyCredentials)
}

func TestAdminService_ChangeCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdmin(t, PasswordPlain)
	require.NoError(t, svc.Setup(ctx, "admin", "pw"))

	assert.ErrorIs(t, svc.ChangeCredentials(ctx, "boss", "new", "other"), ErrPasswordMismatch)
	assert.ErrorIs(t, svc.ChangeCredentials(ctx, "", "new", "new"), ErrEmptyCredentials)

	require.NoError(t, svc.ChangeCredentials(ctx, "boss", "new", "new"))
	assert.False(t, svc.Validate(ctx, "admin", "pw"))
	assert.True(t, svc.Validate(ctx, "boss", "new"))
}

func TestAdminService_PlainModeStoresPassword(t *testing.T) {
	ctx := context.Background()
	svc, remote := newAdmin(t, PasswordPlain)
	require.NoError(t, svc.SetCredentials(ctx, "admin", "pw"))

	doc, err := remote.GetDocument(ctx, "settings", "admin_creds")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.JSONEq(t, `{"username":"admin","password":"pw"}`, string(doc.Data))
}

func TestAdminService_BcryptMode(t *testing.T) {
	ctx := context.Background()
	svc, remote := newAdmin(t, PasswordBcrypt)
	require.NoError(t, svc.SetCredentials(ctx, "admin", "pw"))

	doc, err := remote.GetDocument(ctx, "settings", "admin_creds")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.False(t, strings.Contains(string(doc.Data), `"password":"pw"`))

	assert.True(t, svc.Validate(ctx, "admin", "pw"))
	assert.False(t, svc.Validate(ctx, "admin", "nope"))
}

func TestAdminService_OfflineSetupThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, remote := newAdmin(t, PasswordPlain)
	remote.FailWith(errors.New("permission denied"))

	assert.False(t, svc.CredentialsExist(ctx))
	require.NoError(t, svc.Setup(ctx, "admin", "pw"))
	assert.True(t, svc.Validate(ctx, "admin", "pw"))
}

func TestConstantTimeCompare(t *testing.T) {
	assert.True(t, ConstantTimeCompare("abc", "abc"))
	assert.False(t, ConstantTimeCompare("abc", "abd"))
	assert.False(t, ConstantTimeCompare("abc", "ab"))
}
