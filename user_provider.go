package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the slice of the credential store the provider needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// UserProvider resolves identities against the credential store
type UserProvider struct {
	store  UserStore
	hasher PasswordAuthenticator
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: BcryptHasher{},
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// WithPasswordAuthenticator overrides the password hasher.
func (u *UserProvider) WithPasswordAuthenticator(hasher PasswordAuthenticator) *UserProvider {
	if hasher != nil {
		u.hasher = hasher
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return
// identity. The existence check runs before any password comparison; every
// failure after it is normalized to ErrInvalidCredentials.
func (u *UserProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	if !user.Active {
		u.logger.Warn("login blocked for inactive user", "username", username)
		return nil, ErrInvalidCredentials
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return identityFromUser(user), nil
}

// FindIdentityByIdentifier resolves a stored user into an identity without
// any credential check. The authentication pipeline uses this after the token
// subject has been decoded.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return identityFromUser(user), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	active   bool
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Active() bool {
	return a.active
}

var _ Identity = authIdentity{}

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		active:   user.Active,
	}
}

var _ IdentityProvider = (*UserProvider)(nil)
