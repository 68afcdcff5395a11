package errors

import (
	"errors"
	"fmt"
)

// Common error types for the ERP session client
var (
	// Credential errors
	ErrMissingCredentials = errors.New("access and refresh tokens are required")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrStorageUnavailable = errors.New("credential storage unavailable")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrInvalidAccessToken = errors.New("invalid access token")

	// Rotation errors
	ErrRotationRejected        = errors.New("token rotation rejected")
	ErrInvalidRotationResponse = errors.New("invalid token rotation response")

	// Persisted state errors
	ErrMalformedState = errors.New("malformed persisted state")
	ErrNotFound       = errors.New("not found")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
