package auth_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	auth "github.com/sura/auth-service"
	"github.com/uptrace/bun"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// NoopLogger swallows everything; for tests that don't assert on logging.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) SubjectOf(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IsExpired(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

func (m *MockTokenService) Validate(token, subject string) bool {
	args := m.Called(token, subject)
	return args.Bool(0)
}

// MockAuthenticator implements auth.Authenticator for testing
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, username, email, password string) (string, error) {
	args := m.Called(ctx, username, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, username string) string {
	args := m.Called(ctx, username)
	return args.String(0)
}

func (m *MockAuthenticator) TokenService() auth.TokenService {
	args := m.Called()
	return args.Get(0).(auth.TokenService)
}

// MockIdentityProvider implements auth.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (auth.Identity, error) {
	args := m.Called(ctx, username, password)
	if id := args.Get(0); id != nil {
		return id.(auth.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	if id := args.Get(0); id != nil {
		return id.(auth.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserStore implements auth.UserStore for testing
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// TestIdentity is a plain auth.Identity value for tests
type TestIdentity struct {
	id       string
	username string
	email    string
	active   bool
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Active() bool     { return t.active }

// MockConfig implements auth.Config for tests
type MockConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

func newMockConfig() *MockConfig {
	return &MockConfig{
		SigningKey:      "test-signing-key",
		SigningMethod:   "HS256",
		ContextKey:      "identity",
		TokenExpiration: 3600000,
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
		Issuer:          "test-issuer",
		Audience:        []string{},
	}
}

func (m *MockConfig) GetSigningKey() string    { return m.SigningKey }
func (m *MockConfig) GetSigningMethod() string { return m.SigningMethod }
func (m *MockConfig) GetContextKey() string    { return m.ContextKey }
func (m *MockConfig) GetTokenExpiration() int  { return m.TokenExpiration }
func (m *MockConfig) GetTokenLookup() string   { return m.TokenLookup }
func (m *MockConfig) GetAuthScheme() string    { return m.AuthScheme }
func (m *MockConfig) GetIssuer() string        { return m.Issuer }
func (m *MockConfig) GetAudience() []string    { return m.Audience }

// fakeUsers overrides the repository methods the registration path touches;
// the embedded interface covers the rest of the contract.
type fakeUsers struct {
	auth.Users

	usernameTaken bool
	emailTaken    bool

	usernameChecked bool
	emailChecked    bool

	created     *auth.User
	registerErr error
}

func (f *fakeUsers) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	f.usernameChecked = true
	return f.usernameTaken, nil
}

func (f *fakeUsers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	f.emailChecked = true
	return f.emailTaken, nil
}

func (f *fakeUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.created = user
	return user, nil
}

// fakeRepo runs transaction bodies inline against the fake store.
type fakeRepo struct {
	users *fakeUsers
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: &fakeUsers{}}
}

func (f *fakeRepo) Validate() error { return nil }
func (f *fakeRepo) MustValidate()   {}

func (f *fakeRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepo) Users() auth.Users { return f.users }
