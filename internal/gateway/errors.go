package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrUnauthenticated is returned when a request is rejected and there is no
	// session to recover with.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRefreshTokenMissing is returned when the session has no refresh token.
	ErrRefreshTokenMissing = errors.New("missing refresh token")

	// ErrRefreshTokenExpired is returned when the refresh token expiry has passed.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrRefreshCallFailed is returned when the refresh endpoint could not be
	// reached or rejected the refresh token.
	ErrRefreshCallFailed = errors.New("refresh call failed")

	// ErrInvalidRefreshResponse is returned when the refresh endpoint answered
	// without a new token pair. It also matches ErrRefreshCallFailed.
	ErrInvalidRefreshResponse = fmt.Errorf("%w: invalid refresh token response", ErrRefreshCallFailed)

	// ErrRetryExhausted is returned when a replayed request is rejected again.
	ErrRetryExhausted = errors.New("request unauthorized after token refresh")
)

// RefreshExpiredReason is broadcast when a 401 arrives after the refresh
// token has already expired.
const RefreshExpiredReason = "Your refresh session has expired. Please sign in again."

// AuthError is returned to the caller when a 401 could not be recovered.
// StatusCode and Message describe the response that triggered the failure.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RefreshError describes a failed refresh call. StatusCode is zero when no
// response was received.
type RefreshError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RefreshError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Message)
	}
	return e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// reasonOf picks the most specific human readable message for err.
func reasonOf(err error) string {
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) && refreshErr.Message != "" {
		return refreshErr.Message
	}
	return err.Error()
}
