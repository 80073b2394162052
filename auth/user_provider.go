package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserStore is the slice of the repository the provider needs
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
}

// UserProvider resolves and verifies identities against the credential store
type UserProvider struct {
	store  UserStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user and compare the password against the
// stored hash. Every failure mode returns ErrInvalidCredentials so callers
// cannot probe which part was wrong.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}

	return user, nil
}

// FindIdentityByIdentifier resolves a user without checking credentials.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return u.store.GetByIdentifier(ctx, identifier)
}
