package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService issues and verifies signed, expiring bearer tokens. It is a
// pure function of the signing secret and a clock; it owns no durable state.
type TokenService interface {
	// Issue creates a signed token for the given subject.
	Issue(subject string) (string, error)
	// SubjectOf decodes the token and returns its subject. It fails when the
	// structure cannot be decoded or the signature does not verify; expiry is
	// not checked here, that is Validate's job.
	SubjectOf(token string) (string, error)
	// IsExpired reports whether the token's expiry has passed.
	IsExpired(token string) bool
	// Validate is the single authority for "is this token usable right now":
	// signature verifies, not expired, and the subject matches exactly.
	Validate(token, subject string) bool
}

// Authenticator holds methods to deal with credential management
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, username string) string
	TokenService() TokenService
}

// Identity holds the attributes of an authenticated subject. Values are
// derived per request and never shared across requests.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Active() bool
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	// GetTokenExpiration returns the token lifetime in milliseconds.
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, username, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
