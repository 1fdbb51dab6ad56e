package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeHashingFailed    = "HASHING_FAILED"
	TextCodeMalformedHash    = "MALFORMED_HASH"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeUsernameTaken    = "USERNAME_TAKEN"
	TextCodeClaimsIncomplete = "CLAIMS_INCOMPLETE"
	TextCodeInvalidKey       = "INVALID_SESSION_KEY"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
)

// ErrHashingFailed is returned when a password could not be hashed. Callers
// must abort the operation, a record must never be stored without a hash.
var ErrHashingFailed = goerrors.New("password hashing failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeHashingFailed).
	WithCode(goerrors.CodeInternal)

// ErrMalformedHash is returned when a stored credential hash cannot be parsed
var ErrMalformedHash = goerrors.New("malformed credential hash", goerrors.CategoryInternal).
	WithTextCode(TextCodeMalformedHash).
	WithCode(goerrors.CodeInternal)

// ErrInvalidCredentials is the only error a login caller sees for unknown
// users and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("invalid username or password", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when the account exists but is not active
var ErrAccountDisabled = goerrors.New("account disabled", goerrors.CategoryAuthz).
	WithTextCode(goerrors.TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrUserNotFound is returned by user stores for unknown usernames
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUsernameTaken is returned by user stores on duplicate registration
var ErrUsernameTaken = goerrors.New("username already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(goerrors.CodeConflict)

// ErrClaimsIncomplete session claims are missing subject or expiration
var ErrClaimsIncomplete = goerrors.New("session claims incomplete", goerrors.CategoryValidation).
	WithTextCode(TextCodeClaimsIncomplete).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidKey the session key is not 32 bytes of key material
var ErrInvalidKey = goerrors.New("invalid session key", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidKey).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordMismatch password and confirmation differ
var ErrPasswordMismatch = goerrors.New("passwords do not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// IsInternal reports whether err is a fault that should surface as a
// generic internal error instead of a business outcome. Errors without a
// category are internal.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return true
	}

	switch richErr.Category {
	case goerrors.CategoryInternal, goerrors.CategoryExternal, goerrors.CategoryOperation:
		return true
	}
	return false
}

// Message returns the human readable part of err, without the category
// prefix go-errors adds to Error()
func Message(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
