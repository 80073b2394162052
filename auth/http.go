package auth

import (
	"context"
	"fmt"

	"github.com/Gspeed-bit/invoica-backend/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
)

// tokenValidatorAdapter bridges the Authenticator into the middleware's
// validator interface.
type tokenValidatorAdapter struct {
	auther Authenticator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.auther.SessionFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewProtectedMiddleware guards routes with bearer session tokens. A request
// passes only when the token validates and its subject resolves to a user
// with a verified email; the resolved user is attached to the request
// context.
func NewProtectedMiddleware(auther Authenticator, repo RepositoryManager, cfg Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{auther: auther},
		ContextKey:     cfg.GetContextKey(),
		AuthScheme:     cfg.GetAuthScheme(),
		IdentityLoader: NewIdentityLoader(repo),
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims, identity any) context.Context {
			if user, ok := identity.(*User); ok {
				ctx = WithContext(ctx, user)
			}
			if authClaims, ok := claims.(AuthClaims); ok {
				ctx = WithClaimsContext(ctx, authClaims)
			}
			return ctx
		},
	})
}

// NewIdentityLoader resolves the session subject to a stored user and rejects
// subjects whose email is still unverified.
func NewIdentityLoader(repo RepositoryManager) jwtware.IdentityLoader {
	return func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
		user, err := repo.Users().GetByID(ctx, claims.UserID())
		if err != nil {
			return nil, fmt.Errorf("%w: no user for session subject", jwtware.ErrIdentityRejected)
		}

		if !user.EmailVerified {
			return nil, fmt.Errorf("%w: %w", jwtware.ErrIdentityRejected, ErrEmailNotVerified)
		}

		return user, nil
	}
}
