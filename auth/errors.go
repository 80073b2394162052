package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodePasswordMismatch   = "password_mismatch"
	TextCodeEmailExists        = "email_exists"
	TextCodeUsernameExists     = "username_exists"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeInvalidToken       = "invalid_token"
	TextCodeTokenExpired       = "token_expired"
	TextCodeUserNotFound       = "user_not_found"
	TextCodeEmailNotVerified   = "email_not_verified"
)

// ErrPasswordMismatch is returned when password and confirmation differ.
var ErrPasswordMismatch = errors.New("passwords don't match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)

// ErrEmailExists is returned when the email is already registered.
var ErrEmailExists = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeBadRequest)

// ErrUsernameExists is returned when the username is already registered.
var ErrUsernameExists = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameExists).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is the single error for every login failure mode so a
// caller cannot tell which part of the credential pair was wrong.
var ErrInvalidCredentials = errors.New("invalid email/username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrInvalidOrExpiredToken is returned when a single-use artifact does not
// match any outstanding token or its expiry has elapsed. Consumed tokens fail
// the same way: consumption clears them from the store.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned by the reset-request flow for unknown emails.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified blocks access to protected routes until the email
// verification transition has happened.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for session tokens past their validity window.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens that fail signature or
// structural validation.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)
