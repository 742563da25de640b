package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the provider's view of an authenticated account. It is
// deliberately smaller than the profile document: the document store owns
// bio and the social graph, the provider owns credentials.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Patch updates the mutable identity fields. Nil means unchanged.
type Patch struct {
	DisplayName *string
	PhotoURL    *string
}

// Reason is a provider error code. The set mirrors the reason codes a
// hosted identity provider reports so the session layer can map each one
// to a fixed user-facing message.
type Reason string

const (
	ReasonInvalidCredential Reason = "auth/invalid-credential"
	ReasonEmailInUse        Reason = "auth/email-already-in-use"
	ReasonWeakPassword      Reason = "auth/weak-password"
	ReasonInvalidEmail      Reason = "auth/invalid-email"
	ReasonNetwork           Reason = "auth/network-request-failed"
	ReasonUnknown           Reason = "auth/unknown"
)

// CredentialError is returned by account creation and sign-in failures.
type CredentialError struct {
	Reason  Reason
	Message string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// ReasonOf extracts the provider reason from an error chain.
// Errors that are not CredentialError map to ReasonUnknown.
func ReasonOf(err error) Reason {
	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return credErr.Reason
	}
	return ReasonUnknown
}

// StateChange announces the current identity for one client session.
// Identity is nil after sign-out or when no credential is present.
type StateChange struct {
	SessionID string    `json:"session_id"`
	Identity  *Identity `json:"identity,omitempty"`
}

// Provider is the identity-provider contract consumed by the session
// manager. Auth-state notifications are the only path that repopulates
// session state: sign-in/out and account creation publish a StateChange
// for the acting session, and a fresh subscription immediately replays
// the current state for its session.
type Provider interface {
	// CreateAccount registers a new account and signs the session in,
	// which triggers a state-change notification.
	CreateAccount(ctx context.Context, sessionID, email, password string) (*Identity, error)

	// SignIn authenticates and publishes the new state for the session.
	SignIn(ctx context.Context, sessionID, email, password string) (*Identity, error)

	// SignOut clears the session and publishes an absent state.
	SignOut(ctx context.Context, sessionID string) error

	// UpdateIdentity patches the stored identity record. It does not
	// fire a state change; the caller reconciles optimistically.
	UpdateIdentity(ctx context.Context, uid string, patch Patch) error

	// OnAuthStateChange registers a handler for one session's state
	// feed and asynchronously delivers the current state right away.
	// The returned func unsubscribes.
	OnAuthStateChange(sessionID string, handler func(*Identity)) (func(), error)
}
