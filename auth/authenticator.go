package auth

import "context"

type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credential pair and issues a session token. Login never
// mutates the store; verification state is not checked here, only at the
// protected-route guard.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, *User, error) {
	user, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", nil, err
	}

	token, err := s.tokenService.Generate(IdentityFromUser(user))
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return "", nil, err
	}

	return token, user, nil
}

// SessionFromToken validates a raw session token and returns its claims.
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}
