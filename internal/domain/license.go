// Package domain contains the core business entities, their rules, and the
// persistence ports.
package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Duration is the billing period of a license key.
type Duration string

const (
	DurationWeekly  Duration = "weekly"
	DurationMonthly Duration = "monthly"
	DurationYearly  Duration = "yearly"
)

// Valid reports whether d is a known duration.
func (d Duration) Valid() bool {
	switch d {
	case DurationWeekly, DurationMonthly, DurationYearly:
		return true
	}
	return false
}

// ValidUntil returns the expiry instant of a key issued at from.
func (d Duration) ValidUntil(from time.Time) time.Time {
	switch d {
	case DurationWeekly:
		return from.AddDate(0, 0, 7)
	case DurationMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(1, 0, 0)
	}
}

// Plan is a self-service license offering.
type Plan struct {
	Duration Duration `json:"duration"`
	Label    string   `json:"label"`
	Price    float64  `json:"price"`
	Summary  string   `json:"summary"`
}

// Plans lists the self-service offerings by duration.
var Plans = map[Duration]Plan{
	DurationWeekly:  {Duration: DurationWeekly, Label: "Weekly Starter", Price: 50000, Summary: "7 Days Access"},
	DurationMonthly: {Duration: DurationMonthly, Label: "Monthly Pro", Price: 150000, Summary: "30 Days Access"},
	DurationYearly:  {Duration: DurationYearly, Label: "Yearly Business", Price: 1500000, Summary: "365 Days Access"},
}

// AuthKey is a license key. DeviceID is nil until the first successful validation.
type AuthKey struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	ValidUntil time.Time `json:"valid_until"`
	Duration   Duration  `json:"duration"`
	Price      float64   `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
	IsActive   bool      `json:"is_active"`
	UsageCount int       `json:"usage_count"`
	DeviceID   *string   `json:"deviceId"`
}

// NewAuthKey returns an active, unbound, unused key.
func NewAuthKey(id, key string, d Duration, price float64, now time.Time) AuthKey {
	return AuthKey{
		ID:         id,
		Key:        key,
		ValidUntil: d.ValidUntil(now).UTC(),
		Duration:   d,
		Price:      price,
		CreatedAt:  now.UTC(),
		IsActive:   true,
	}
}

// Reason classifies the outcome of a license validation.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonInvalidKey     Reason = "invalid_key"
	ReasonKeyRevoked     Reason = "key_revoked"
	ReasonKeyExpired     Reason = "key_expired"
	ReasonDeviceMismatch Reason = "device_mismatch"
)

var reasonMessages = map[Reason]string{
	ReasonInvalidKey:     "Invalid Key ID",
	ReasonKeyRevoked:     "Key has been revoked",
	ReasonKeyExpired:     "Key expired",
	ReasonDeviceMismatch: "Key is registered to another device.",
}

// Message is the human-readable text for r.
func (r Reason) Message() string { return reasonMessages[r] }

// Check evaluates revocation, expiry, and device binding in that order and
// returns the first failing reason, or ReasonNone.
func (k AuthKey) Check(now time.Time, deviceID string) Reason {
	if !k.IsActive {
		return ReasonKeyRevoked
	}
	if k.ValidUntil.Before(now) {
		return ReasonKeyExpired
	}
	if k.DeviceID != nil && *k.DeviceID != deviceID {
		return ReasonDeviceMismatch
	}
	return ReasonNone
}

// Claim binds the key to deviceID if unbound and counts one use.
// Callers must have passed Check first.
func (k *AuthKey) Claim(deviceID string) {
	if k.DeviceID == nil {
		d := deviceID
		k.DeviceID = &d
	}
	k.UsageCount++
}

// ValidationResult is what a validation request returns to its caller.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
	Override bool   `json:"override,omitempty"`
}

// Rejected builds a failed result for r.
func Rejected(r Reason) ValidationResult {
	return ValidationResult{Message: r.Message(), Reason: r}
}

// LicenseStats summarizes issued keys.
type LicenseStats struct {
	TotalRevenue float64 `json:"totalRevenue"`
	ActiveKeys   int     `json:"activeKeys"`
	TotalKeys    int     `json:"totalKeys"`
}

// SummarizeKeys computes revenue and key counts.
func SummarizeKeys(keys []AuthKey) LicenseStats {
	var s LicenseStats
	for _, k := range keys {
		s.TotalRevenue += k.Price
		if k.IsActive {
			s.ActiveKeys++
		}
	}
	s.TotalKeys = len(keys)
	return s
}

const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateKeyString returns a random key of the form KSR-XXXX-XXXX-XXXX.
func GenerateKeyString() (string, error) {
	groups := make([]string, 0, 3)
	base := big.NewInt(int64(len(keyAlphabet)))
	for range 3 {
		var b strings.Builder
		for range 4 {
			n, err := rand.Int(rand.Reader, base)
			if err != nil {
				return "", fmt.Errorf("generate key: %w", err)
			}
			b.WriteByte(keyAlphabet[n.Int64()])
		}
		groups = append(groups, b.String())
	}
	return "KSR-" + strings.Join(groups, "-"), nil
}
