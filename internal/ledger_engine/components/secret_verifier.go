package components

import (
	"errors"
	"fmt"

	"github.com/mobile-money-ledger/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// BcryptSecrets hashes account secrets at registration and checks them on every operation
type BcryptSecrets struct {
	cost int
}

func NewSecretVerifier(cost int) *BcryptSecrets {
	return &BcryptSecrets{cost: cost}
}

func (s *BcryptSecrets) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

func (s *BcryptSecrets) Verify(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidSecret, "invalid secret")
	}
	// A malformed stored hash is not the caller's fault.
	return shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "failed to verify secret", err)
}
