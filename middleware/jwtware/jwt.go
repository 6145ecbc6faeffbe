// Package jwtware resolves bearer tokens into request identities for fiber
// applications. A missing or bad token never aborts the request; the request
// simply continues anonymous, and route-level guards decide what anonymity
// may reach.
package jwtware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenService is the subset of the token API the middleware needs.
// Mirrored locally so the package carries no dependency on its host.
type TokenService interface {
	SubjectOf(token string) (string, error)
	Validate(token, subject string) bool
}

// Identity is the resolved principal attached to the request.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Active() bool
}

// Logger matches the host application's logging surface.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the middleware wiring.
type Config struct {
	// Filter skips the middleware entirely when it returns true.
	Filter func(*fiber.Ctx) bool

	// TokenService parses and validates bearer tokens. Required.
	TokenService TokenService

	// IdentityLookup resolves the token subject into an identity. Required.
	IdentityLookup func(ctx context.Context, subject string) (Identity, error)

	// ContextKey is the fiber locals key the identity is stored under.
	// Defaults to "identity".
	ContextKey string

	// TokenLookup is a "<source>:<name>" string describing where the token
	// lives. Defaults to "header:Authorization".
	TokenLookup string

	// AuthScheme strips a scheme prefix when reading from a header.
	// Defaults to "Bearer".
	AuthScheme string

	// ContextEnricher lets the host stash the identity in the request
	// context for code that runs below fiber.
	ContextEnricher func(ctx context.Context, identity Identity) context.Context

	Logger Logger
}

func (c *Config) setDefaults() {
	if c.ContextKey == "" {
		c.ContextKey = "identity"
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:" + fiber.HeaderAuthorization
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

// New builds the authentication middleware. Every failure path degrades to
// anonymous: extraction, parsing, validation, and lookup errors are logged
// and the chain continues without an identity.
func New(config Config) fiber.Handler {
	if config.TokenService == nil {
		panic("jwtware: missing TokenService")
	}
	if config.IdentityLookup == nil {
		panic("jwtware: missing IdentityLookup")
	}
	config.setDefaults()

	extractor := makeExtractor(config.TokenLookup, config.AuthScheme)

	return func(c *fiber.Ctx) error {
		if config.Filter != nil && config.Filter(c) {
			return c.Next()
		}

		raw, ok := extractor(c)
		if !ok {
			return c.Next()
		}

		subject, err := config.TokenService.SubjectOf(raw)
		if err != nil {
			config.Logger.Debug("token parse failed, continuing anonymous", "error", err)
			return c.Next()
		}

		if !config.TokenService.Validate(raw, subject) {
			config.Logger.Debug("token validation failed, continuing anonymous", "subject", subject)
			return c.Next()
		}

		identity, err := config.IdentityLookup(c.Context(), subject)
		if err != nil {
			config.Logger.Warn("identity lookup failed, continuing anonymous", "subject", subject, "error", err)
			return c.Next()
		}

		c.Locals(config.ContextKey, identity)

		if config.ContextEnricher != nil {
			c.SetUserContext(config.ContextEnricher(c.UserContext(), identity))
		}

		return c.Next()
	}
}

// RequireAuthenticated is the route-level guard for protected endpoints:
// no identity in locals means a 401, never a silent pass.
func RequireAuthenticated(contextKey string) fiber.Handler {
	if contextKey == "" {
		contextKey = "identity"
	}
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(contextKey).(Identity); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token inválido",
			})
		}
		return c.Next()
	}
}

type extractorFunc func(*fiber.Ctx) (string, bool)

// makeExtractor parses a "<source>:<name>" lookup string into a token
// extractor. Unknown sources fall back to the Authorization header.
func makeExtractor(lookup, scheme string) extractorFunc {
	parts := strings.SplitN(lookup, ":", 2)
	source, name := "header", fiber.HeaderAuthorization
	if len(parts) == 2 {
		source, name = parts[0], parts[1]
	}

	switch source {
	case "query":
		return func(c *fiber.Ctx) (string, bool) {
			token := c.Query(name)
			return token, token != ""
		}
	case "cookie":
		return func(c *fiber.Ctx) (string, bool) {
			token := c.Cookies(name)
			return token, token != ""
		}
	default:
		prefix := scheme + " "
		return func(c *fiber.Ctx) (string, bool) {
			header := c.Get(name)
			if header == "" {
				return "", false
			}
			if scheme == "" {
				return header, true
			}
			if !strings.HasPrefix(header, prefix) {
				return "", false
			}
			return strings.TrimPrefix(header, prefix), true
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
