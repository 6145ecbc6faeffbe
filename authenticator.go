package auth

import (
	"context"
	"reflect"
)

// LogoutMessage is the client-facing confirmation returned by Logout. No
// token is invalidated; presented tokens stay valid until natural expiry.
const LogoutMessage = "Logout exitoso"

// Auther orchestrates registration, login, and logout around the token
// lifecycle. It owns no state of its own.
type Auther struct {
	provider     IdentityProvider
	repo         RepositoryManager
	hasher       PasswordAuthenticator
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		repo:         repo,
		hasher:       BcryptHasher{},
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly for tests that need a
// controlled clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithPasswordAuthenticator overrides the password hasher.
func (s *Auther) WithPasswordAuthenticator(hasher PasswordAuthenticator) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new credential record and issues a token for it. The
// uniqueness checks and the insert run inside one transaction.
func (s *Auther) Register(ctx context.Context, username, email, password string) (string, error) {
	req := RegisterUserMessage{
		Username: username,
		Email:    email,
		Password: password,
	}

	handler := NewRegisterUserHandler(s.repo, s.hasher)
	if err := handler.Execute(ctx, req); err != nil {
		s.logger.Error("Register user error", "username", username, "error", err)
		return "", err
	}

	s.logger.Info("Usuario registrado exitosamente", "username", username)

	token, err := s.tokenService.Issue(username)
	if err != nil {
		s.logger.Error("Register token issue error", "username", username, "error", err)
		return "", err
	}

	return token, nil
}

// Login verifies the credentials and issues a fresh token.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login verify identity error", "username", username, "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrIdentityNotFound
	}

	token, err := s.tokenService.Issue(identity.Username())
	if err != nil {
		s.logger.Error("Login token issue error", "username", username, "error", err)
		return "", err
	}

	s.logger.Info("Login exitoso", "username", username)

	return token, nil
}

// Logout produces the confirmation message only. There is no revocation
// store, so this mutates nothing and is safe to call any number of times.
func (s *Auther) Logout(ctx context.Context, username string) string {
	s.logger.Info("Logout para usuario", "username", username)
	return LogoutMessage
}

var _ Authenticator = (*Auther)(nil)
