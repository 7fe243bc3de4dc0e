package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to back-office passwords. Customer PINs are
// short by nature and are not checked.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned when a new password is below MinPasswordLength.
var ErrPasswordTooShort = errors.New("password too short")

// Hasher hashes passwords and PINs with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher. Costs outside bcrypt's range fall back to
// bcrypt.DefaultCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash hashes a secret.
func (h Hasher) Hash(secret string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// HashPassword validates and hashes a new back-office password.
func (h Hasher) HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	return h.Hash(password)
}

// Verify reports whether plain matches hashed. A missing or malformed hash
// never matches.
func Verify(hashed *string, plain string) bool {
	if hashed == nil || *hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hashed), []byte(plain)) == nil
}
