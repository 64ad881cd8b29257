// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAdminAlreadyConfigured indicates that setup was attempted after credentials exist.
	ErrAdminAlreadyConfigured = errors.New("admin already configured")
	// ErrAdminNotConfigured indicates that login was attempted before setup.
	ErrAdminNotConfigured = errors.New("admin not configured")
	// ErrEmptyCredentials indicates a blank username or password.
	ErrEmptyCredentials = errors.New("username and password are required")
	// ErrPasswordMismatch indicates that the confirmation differs from the new password.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// PasswordMode selects how the admin password is stored.
type PasswordMode string

const (
	// PasswordPlain stores the password as entered.
	PasswordPlain PasswordMode = "plain"
	// PasswordBcrypt stores a bcrypt hash.
	PasswordBcrypt PasswordMode = "bcrypt"
)

// AdminService is the admin credential gate.
type AdminService struct {
	facade *persistence.Facade
	mode   PasswordMode
}

// NewAdminService creates a new admin credential gate.
func NewAdminService(f *persistence.Facade, mode PasswordMode) *AdminService {
	if mode != PasswordBcrypt {
		mode = PasswordPlain
	}
	return &AdminService{facade: f, mode: mode}
}

// CredentialsExist reports whether an admin has been configured.
func (s *AdminService) CredentialsExist(ctx context.Context) bool {
	return persistence.LoadSingleton(ctx, s.facade, persistence.AdminCredentials) != nil
}

// SetCredentials overwrites the stored credentials.
func (s *AdminService) SetCredentials(ctx context.Context, username, password string) error {
	stored := password
	if s.mode == PasswordBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		stored = string(hash)
	}
	return persistence.StoreSingleton(ctx, s.facade, persistence.AdminCredentials, domain.AdminCredentials{
		Username: username,
		Password: stored,
	})
}

// Validate reports whether username and password match the stored credentials.
func (s *AdminService) Validate(ctx context.Context, username, password string) bool {
	creds := persistence.LoadSingleton(ctx, s.facade, persistence.AdminCredentials)
	if creds == nil {
		return false
	}
	userOK := ConstantTimeCompare(creds.Username, username)
	var passOK bool
	if s.mode == PasswordBcrypt {
		passOK = bcrypt.CompareHashAndPassword([]byte(creds.Password), []byte(password)) == nil
	} else {
		passOK = ConstantTimeCompare(creds.Password, password)
	}
	return userOK && passOK
}

// Setup stores the first credentials. It fails once an admin exists.
func (s *AdminService) Setup(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	if s.CredentialsExist(ctx) {
		return ErrAdminAlreadyConfigured
	}
	return s.SetCredentials(ctx, username, password)
}

// Login checks credentials against the configured admin.
func (s *AdminService) Login(ctx context.Context, username, password string) error {
	if !s.CredentialsExist(ctx) {
		return ErrAdminNotConfigured
	}
	if !s.Validate(ctx, username, password) {
		return ErrInvalidCredentials
	}
	return nil
}

// ChangeCredentials replaces the admin username and password.
func (s *AdminService) ChangeCredentials(ctx context.Context, username, password, confirm string) error {
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return s.SetCredentials(ctx, username, password)
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
