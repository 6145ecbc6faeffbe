package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes used by clients to branch on failures without parsing messages.
const (
	TextCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenRequired      = "TOKEN_REQUIRED"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeSignatureInvalid   = "SIGNATURE_INVALID"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrDuplicateUsername is returned when a registration targets a username
// that is already taken. The boundary answers 400 with the message as-is.
var ErrDuplicateUsername = errors.New("Nombre de usuario ya registrado", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateUsername)

// ErrDuplicateEmail is returned when a registration targets an email that is
// already taken. Never reported when the username check already failed.
var ErrDuplicateEmail = errors.New("El email ya está registrado", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateEmail)

// ErrUserNotFound is returned by login when the username does not exist.
var ErrUserNotFound = errors.New("Usuario no encontrado", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrInvalidCredentials normalizes every authentication failure after the
// existence check. It deliberately reveals nothing about which part was wrong.
var ErrInvalidCredentials = errors.New("Credenciales inválidas", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrTokenRequired is the logout failure when no bearer token was presented.
var ErrTokenRequired = errors.New("Token requerido", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeTokenRequired)

// ErrTokenInvalid is the client-facing failure for a token that cannot be
// parsed where one is required.
var ErrTokenInvalid = errors.New("Token inválido", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenExpired signals a structurally valid, correctly signed token whose
// expiry has passed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed signals a token whose structure cannot be decoded.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrSignatureInvalid signals a token whose signature does not verify against
// the configured secret.
var ErrSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSignatureInvalid)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is the hasher-level mismatch; callers normalize
// it to ErrInvalidCredentials before it leaves the core.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the store-level miss for identity lookups.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
