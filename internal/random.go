package internal

import (
	"errors"

	"github.com/google/uuid"
)

// NewJTI generates a fresh refresh-session identifier. A new value is
// minted at issuance and at every rotation; identifiers are never reused.
func NewJTI() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateJTI rejects identifiers that are not canonical UUID strings.
// Store keys are derived from the jti, so malformed values are refused
// before they ever reach Redis.
func ValidateJTI(jti string) error {
	parsed, err := uuid.Parse(jti)
	if err != nil {
		return errors.New("invalid session identifier")
	}
	if parsed == uuid.Nil {
		return errors.New("nil session identifier")
	}
	return nil
}
