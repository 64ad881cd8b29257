package app

import (
	"errors"
	"fmt"
	"time"

	"luminapos/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession indicates a missing, malformed, expired, or forged token.
var ErrInvalidSession = errors.New("invalid session")

// Session is the verified content of a session token.
type Session struct {
	Role      domain.Role
	Subject   string
	DeviceID  string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Role     domain.Role `json:"role"`
	DeviceID string      `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies HS256 signed session tokens.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a session service signing with secret.
func NewSessionService(secret []byte, ttl time.Duration) *SessionService {
	return &SessionService{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for subject with the given role.
func (s *SessionService) Issue(role domain.Role, subject, deviceID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role:     role,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns its session.
func (s *SessionService) Parse(raw string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RoleLicense {
		return nil, ErrInvalidSession
	}
	return &Session{
		Role:      claims.Role,
		Subject:   claims.Subject,
		DeviceID:  claims.DeviceID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
