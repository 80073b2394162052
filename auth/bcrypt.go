package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is tunable for environments where the default interactive
// login cost is too slow (race-enabled test runs, CI).
var passwordHashCost = 10

// SetPasswordHashCost overrides the bcrypt work factor. Values outside the
// bcrypt supported range fall back to the library default.
func SetPasswordHashCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	passwordHashCost = cost
}

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
