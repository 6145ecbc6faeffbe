package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	now             func() time.Time
}

// NewTokenService creates a new TokenService instance. tokenExpiration is the
// token lifetime in milliseconds.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock overrides the time source. Tests use this to move past expiry
// without sleeping.
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

func (ts *TokenServiceImpl) ttl() time.Duration {
	return time.Duration(ts.tokenExpiration) * time.Millisecond
}

// Issue creates a signed token for the given subject
func (ts *TokenServiceImpl) Issue(subject string) (string, error) {
	now := ts.now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// SubjectOf decodes the token and returns its subject. The signature is
// verified; expiry is not, so an expired token still yields its subject.
func (ts *TokenServiceImpl) SubjectOf(token string) (string, error) {
	claims, err := ts.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

// IsExpired reports whether the token's expiry has passed. Tokens that cannot
// be decoded or verified are unusable and report expired.
func (ts *TokenServiceImpl) IsExpired(token string) bool {
	claims, err := ts.parse(token)
	if err != nil {
		return true
	}
	return !ts.now().Before(claims.Expires())
}

// Validate reports whether the token is usable right now for the expected
// subject: signature verifies, expiry has not passed, and the decoded subject
// equals expectedSubject exactly (case-sensitive).
func (ts *TokenServiceImpl) Validate(token, expectedSubject string) bool {
	claims, err := ts.parse(token)
	if err != nil {
		return false
	}

	if !ts.now().Before(claims.Expires()) {
		return false
	}

	return claims.Subject() == expectedSubject
}

// parse verifies structure and signature, leaving time-based claims to the
// callers so the injected clock stays authoritative.
func (ts *TokenServiceImpl) parse(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrSignatureInvalid
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok {
		ts.logger.Error("TokenService parse could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

var _ TokenService = (*TokenServiceImpl)(nil)
