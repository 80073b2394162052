package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/goliatone/go-errors"
)

// artifactEntropyBytes is the raw entropy of a single-use artifact.
const artifactEntropyBytes = 32

// NewArtifact returns an opaque single-use token for email verification and
// password reset flows. The value is only ever valid together with a stored
// expiry; callers persist both on the owning user row.
func NewArtifact() (string, error) {
	b := make([]byte, artifactEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate token")
	}
	return hex.EncodeToString(b), nil
}
