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
	// ErrUnknownPlan indicates a purchase of a plan that is not offered.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrInvalidDuration indicates an issue request with an unknown duration.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// LicenseService validates, issues, and revokes license keys.
type LicenseService struct {
	facade    *persistence.Facade
	masterKey string
}

// NewLicenseService creates a license service. An empty masterKey disables the
// override.
func NewLicenseService(f *persistence.Facade, masterKey string) *LicenseService {
	return &LicenseService{facade: f, masterKey: masterKey}
}

// rejection aborts a claim whose key no longer passes the checks.
type rejection struct{ reason domain.Reason }

func (r rejection) Error() string { return string(r.reason) }

// Validate runs the validation protocol for key on deviceID. Lookup and the
// device claim always go through the same store; if the remote store fails at
// any step, the whole validation is repeated against the local cache.
func (s *LicenseService) Validate(ctx context.Context, key, deviceID string) (domain.ValidationResult, error) {
	if s.masterKey != "" && ConstantTimeCompare(key, s.masterKey) {
		return domain.ValidationResult{Valid: true, Override: true}, nil
	}
	if key == "" {
		return domain.Rejected(domain.ReasonInvalidKey), nil
	}

	var res domain.ValidationResult
	err := s.facade.Run(ctx, "validate license", func(ctx context.Context, docs domain.DocumentStore) error {
		found, err := persistence.Query(ctx, docs, persistence.AuthKeys, "key", key, 1)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			res = domain.Rejected(domain.ReasonInvalidKey)
			return nil
		}
		now := s.facade.Now()
		if r := found[0].Check(now, deviceID); r != domain.ReasonNone {
			res = domain.Rejected(r)
			return nil
		}

		err = persistence.Modify(ctx, docs, persistence.AuthKeys, found[0].ID, func(k *domain.AuthKey) error {
			if r := k.Check(now, deviceID); r != domain.ReasonNone {
				return rejection{r}
			}
			k.Claim(deviceID)
			return nil
		})
		var rej rejection
		switch {
		case errors.As(err, &rej):
			res = domain.Rejected(rej.reason)
		case errors.Is(err, domain.ErrNotFound):
			res = domain.Rejected(domain.ReasonInvalidKey)
		case err != nil:
			return err
		default:
			res = domain.ValidationResult{Valid: true}
		}
		return nil
	})
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validate license: %w", err)
	}
	return res, nil
}

// Authorize re-checks the key behind a license session without counting a use.
// It reports the failing reason, or ReasonNone while the key is still usable on
// deviceID.
func (s *LicenseService) Authorize(ctx context.Context, key, deviceID string) (domain.Reason, error) {
	reason := domain.ReasonInvalidKey
	err := s.facade.Run(ctx, "authorize license", func(ctx context.Context, docs domain.DocumentStore) error {
		found, err := persistence.Query(ctx, docs, persistence.AuthKeys, "key", key, 1)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			reason = found[0].Check(s.facade.Now(), deviceID)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("authorize license: %w", err)
	}
	return reason, nil
}

// Issue creates a new key for duration at price.
func (s *LicenseService) Issue(ctx context.Context, duration domain.Duration, price float64) (domain.AuthKey, error) {
	if !duration.Valid() {
		return domain.AuthKey{}, ErrInvalidDuration
	}
	if price < 0 {
		return domain.AuthKey{}, ErrInvalidPrice
	}
	keyString, err := domain.GenerateKeyString()
	if err != nil {
		return domain.AuthKey{}, err
	}
	key := domain.NewAuthKey(uuid.NewString(), keyString, duration, price, s.facade.Now())
	if err := persistence.Save(ctx, s.facade, persistence.AuthKeys, key); err != nil {
		return domain.AuthKey{}, err
	}
	return key, nil
}

// Purchase issues a key for a self-service plan at the plan price.
func (s *LicenseService) Purchase(ctx context.Context, plan domain.Duration) (domain.AuthKey, error) {
	p, ok := domain.Plans[plan]
	if !ok {
		return domain.AuthKey{}, ErrUnknownPlan
	}
	return s.Issue(ctx, p.Duration, p.Price)
}

// List returns every key.
func (s *LicenseService) List(ctx context.Context) []domain.AuthKey {
	return persistence.List(ctx, s.facade, persistence.AuthKeys)
}

// Revoke deactivates a key. The device binding is kept. A key that List only
// shows from the seed is stored in its revoked state.
func (s *LicenseService) Revoke(ctx context.Context, id string) error {
	err := persistence.Update(ctx, s.facade, persistence.AuthKeys, id, func(k *domain.AuthKey) error {
		k.IsActive = false
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		for _, k := range s.List(ctx) {
			if k.ID == id {
				k.IsActive = false
				err = persistence.Save(ctx, s.facade, persistence.AuthKeys, k)
				break
			}
		}
	}
	if err != nil {
		return fmt.Errorf("revoke %q: %w", id, err)
	}
	return nil
}

// Stats summarizes revenue and key counts.
func (s *LicenseService) Stats(ctx context.Context) domain.LicenseStats {
	return domain.SummarizeKeys(s.List(ctx))
}
