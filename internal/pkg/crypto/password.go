// Package crypto provides password storage schemes for FreshDeal accounts.
package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/freshdeal/internal/config"
)

// PasswordHasher turns a password into its stored form and checks candidates
// against a stored value.
type PasswordHasher interface {
	// Hash returns the value to persist for password.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored value.
	Verify(stored, password string) (bool, error)
}

// NewPasswordHasher returns the hasher selected by cfg.
func NewPasswordHasher(cfg config.AuthConfig) (PasswordHasher, error) {
	switch cfg.PasswordHashing {
	case "", config.HashingPlain:
		return PlainHasher{}, nil
	case config.HashingBcrypt:
		return NewBcryptHasher(cfg.BcryptCost), nil
	default:
		return nil, fmt.Errorf("unknown password hashing scheme %q", cfg.PasswordHashing)
	}
}

// PlainHasher stores passwords exactly as given and compares them as opaque strings.
type PlainHasher struct{}

// Hash returns password unchanged.
func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

// Verify compares in constant time.
func (PlainHasher) Verify(stored, password string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1, nil
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given work factor.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks password against a bcrypt hash.
func (h *BcryptHasher) Verify(stored, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
}

var (
	_ PasswordHasher = PlainHasher{}
	_ PasswordHasher = (*BcryptHasher)(nil)
)
