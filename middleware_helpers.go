package auth

import (
	"context"

	"github.com/sura/auth-service/middleware/jwtware"
)

// ContextEnricherAdapter bridges the middleware's identity type back into the
// request context so code below the HTTP layer can use FromContext.
func ContextEnricherAdapter(c context.Context, identity jwtware.Identity) context.Context {
	id, ok := identity.(Identity)
	if !ok {
		return c
	}
	return WithContext(c, id)
}

// IdentityLookupAdapter wraps an IdentityProvider for the middleware's
// lookup hook.
func IdentityLookupAdapter(provider IdentityProvider) func(ctx context.Context, subject string) (jwtware.Identity, error) {
	return func(ctx context.Context, subject string) (jwtware.Identity, error) {
		return provider.FindIdentityByIdentifier(ctx, subject)
	}
}
