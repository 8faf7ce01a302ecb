package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/relayops/leadtrack/pkg/errors"
)

// ErrInvalidCredentials is returned on any password mismatch. Login keeps
// the same message for unknown accounts so the response does not leak which
// usernames exist.
var ErrInvalidCredentials = errors.New(errors.ErrCodeInvalidCredentials, "invalid credentials")

// bcrypt hashes at most 72 bytes of input; longer passwords would be
// silently truncated, so they are rejected instead.
const maxPasswordLen = 72

// PasswordHasher wraps bcrypt with the service's cost and length policy.
type PasswordHasher struct {
	cost   int
	minLen int
}

// NewPasswordHasher clamps the cost into bcrypt's supported range.
func NewPasswordHasher(cost, minLen int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLen <= 0 {
		minLen = 8
	}
	return &PasswordHasher{cost: cost, minLen: minLen}
}

// Hash checks the length policy and returns the bcrypt hash.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) < h.minLen {
		return "", errors.Newf(errors.ErrCodeWeakPassword, "password must be at least %d characters", h.minLen)
	}
	if len(password) > maxPasswordLen {
		return "", errors.Newf(errors.CodeValidation, "password must be at most %d bytes", maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}
	return string(hash), nil
}

// Verify compares a candidate password against a stored hash.
func (h *PasswordHasher) Verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
