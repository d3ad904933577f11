package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is reported for any missing or invalid session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidInput marks registration input the user can fix.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenInvalid is the umbrella verification failure. The tagged causes
	// below all match it via errors.Is, so callers that do not care about the
	// cause keep the uniform behavior.
	ErrTokenInvalid = errors.New("invalid token")

	ErrTokenMissing      = tokenError("token missing")
	ErrTokenMalformed    = tokenError("token malformed")
	ErrTokenBadSignature = tokenError("token signature mismatch")
	ErrTokenExpired      = tokenError("token expired")
)

// tokenError is a verification failure cause that also matches
// ErrTokenInvalid.
type tokenError string

func (e tokenError) Error() string { return string(e) }

func (e tokenError) Is(target error) bool { return target == ErrTokenInvalid }
