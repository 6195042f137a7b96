package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CheckCost rejects bcrypt work factors the library would refuse or silently
// replace with its default.
func CheckCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range %d..%d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// HashPassword hashes a plaintext password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if err := CheckCost(cost); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword verifies plain against a stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
