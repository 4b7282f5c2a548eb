package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrEmailRequired is returned when an account is created without an email
var ErrEmailRequired = goerrors.New("users must have an email address", goerrors.CategoryValidation).
	WithTextCode("EMAIL_REQUIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordRequired is returned when a staff or superuser account is
// created without a password
var ErrPasswordRequired = goerrors.New("staff and superusers must have a password", goerrors.CategoryValidation).
	WithTextCode("PASSWORD_REQUIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrEmailTaken is returned when the email is already registered or has an
// open activation pending
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)

// ErrAccountInactive blocks token issuance for accounts that have not
// completed activation
var ErrAccountInactive = goerrors.New("account is not active", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_INACTIVE").
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the generic credential failure
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords at the hashing boundary
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a JWT is past its expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryBadInput).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateEmail reports whether err is the persistence layer's unique
// constraint violation on users.email, surfaced as an "already exists"
// condition to callers.
func IsDuplicateEmail(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == "EMAIL_TAKEN" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") && strings.Contains(msg, "email")
}
