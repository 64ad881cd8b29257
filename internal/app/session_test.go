package app_test

import (
	"testing"
	"time"

	"luminapos/internal/app"
	"luminapos/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_RoundTrip(t *testing.T) {
	svc := app.NewSessionService([]byte("secret"), time.Hour)

	token, exp, err := svc.Issue(domain.RoleLicense, "KSR-AAAA-BBBB-CCCC", "D1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	s, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLicense, s.Role)
	assert.Equal(t, "KSR-AAAA-BBBB-CCCC", s.Subject)
	assert.Equal(t, "D1", s.DeviceID)
}

func TestSessionService_Rejects(t *testing.T) {
	svc := app.NewSessionService([]byte("secret"), time.Hour)
	other := app.NewSessionService([]byte("other"), time.Hour)
	expired := app.NewSessionService([]byte("secret"), -time.Minute)

	forged, _, err := other.Issue(domain.RoleAdmin, "admin", "")
	require.NoError(t, err)
	stale, _, err := expired.Issue(domain.RoleAdmin, "admin", "")
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage": "not-a-token",
		"forged":  forged,
		"expired": stale,
		"none":    none,
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Parse(tok)
			assert.ErrorIs(t, err, app.ErrInvalidSession)
		})
	}
}
