package session

import (
	"errors"
	"fmt"

	"mediagrid-be/internal/platform/identity"
)

var (
	// ErrNotAuthenticated is returned by operations that require a
	// signed-in user. These fail fast and never reach the platform.
	ErrNotAuthenticated = errors.New("no authenticated user")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("you cannot follow yourself")
)

// Fixed login-form strings. The invalid-credential one is load-bearing:
// the login form renders it inline, so it must not change.
const (
	invalidCredentialMessage = "Invalid email or password. Please check your credentials and try again."
	genericLoginMessage      = "Login failed. Please try again."
)

// SignupError wraps a provider rejection of account creation.
type SignupError struct {
	Reason identity.Reason
	Err    error
}

func (e *SignupError) Error() string {
	return fmt.Sprintf("signup failed (%s): %v", e.Reason, e.Err)
}

func (e *SignupError) Unwrap() error { return e.Err }

// LoginError wraps a provider rejection of sign-in.
type LoginError struct {
	Reason identity.Reason
	Err    error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (%s): %v", e.Reason, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// UserMessage maps a provider reason code to the fixed user-facing
// string shown in a toast. Unmapped codes fall back to a generic message.
func UserMessage(reason identity.Reason) string {
	switch reason {
	case identity.ReasonInvalidCredential:
		return invalidCredentialMessage
	case identity.ReasonEmailInUse:
		return "An account with this email already exists."
	case identity.ReasonWeakPassword:
		return "Password is too weak. Use at least 6 characters."
	case identity.ReasonInvalidEmail:
		return "That email address doesn't look right."
	case identity.ReasonNetwork:
		return "Network error. Please check your connection and try again."
	default:
		return "An unknown error occurred."
	}
}
