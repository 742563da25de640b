package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/internal/platform/objectstore"
	"mediagrid-be/pkg/events"
)

const opTimeout = 15 * time.Second

// State is the session snapshot every screen reads. Loading is true only
// while the initial credential resolution is in flight; AuthError is the
// sticky inline message for the login form.
type State struct {
	CurrentUser *UserProfile `json:"current_user,omitempty"`
	Loading     bool         `json:"loading"`
	AuthError   string       `json:"auth_error,omitempty"`
}

// EventPublisher is the slice of the NATS publisher the manager needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Manager is the single writer of one client session's state and the
// only mediator of profile and follow-graph writes. Mutation methods
// update the document store and optimistically patch the in-memory
// profile; the provider's auth-state notification remains the
// authoritative refresh and always wins when it arrives.
type Manager struct {
	sessionID string
	provider  identity.Provider
	docs      docstore.Store
	objects   objectstore.Store
	notifier  notifier.Notifier
	events    EventPublisher
	logger    logger.ILogger

	unsubscribe func()

	mu    sync.RWMutex
	state State
}

func NewManager(
	sessionID string,
	provider identity.Provider,
	docs docstore.Store,
	objects objectstore.Store,
	notify notifier.Notifier,
	eventPublisher EventPublisher,
	log logger.ILogger,
) (*Manager, error) {
	m := &Manager{
		sessionID: sessionID,
		provider:  provider,
		docs:      docs,
		objects:   objects,
		notifier:  notify,
		events:    eventPublisher,
		logger:    log,
		state:     State{Loading: true},
	}

	unsub, err := provider.OnAuthStateChange(sessionID, m.handleAuthState)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to auth state: %w", err)
	}
	m.unsubscribe = unsub
	return m, nil
}

// Close unsubscribes from the auth-state feed. Called at session teardown.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns a snapshot; callers never see the manager's own copy.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		CurrentUser: m.state.CurrentUser.clone(),
		Loading:     m.state.Loading,
		AuthError:   m.state.AuthError,
	}
}

// AwaitUser blocks until the auth-state refresh has populated
// CurrentUser, or the context expires. The state notification arrives
// asynchronously after sign-in, so callers that need the resolved
// profile immediately wait here.
func (m *Manager) AwaitUser(ctx context.Context) (*UserProfile, error) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		m.mu.RLock()
		u := m.state.CurrentUser.clone()
		m.mu.RUnlock()
		if u != nil {
			return u, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// handleAuthState is the sole path that (re)populates CurrentUser.
func (m *Manager) handleAuthState(id *identity.Identity) {
	if id == nil {
		m.mu.Lock()
		m.state.CurrentUser = nil
		m.state.Loading = false
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	profile, err := m.getOrCreateProfile(ctx, id)
	if err != nil {
		m.logger.Error("SessionManager", "Failed to resolve profile on auth state change", map[string]interface{}{
			"uid":   id.UID,
			"error": err.Error(),
		})
		return
	}

	m.mu.Lock()
	m.state.CurrentUser = profile
	m.state.Loading = false
	m.mu.Unlock()
}

// getOrCreateProfile fetches the users document, lazily creating a basic
// one when absent (first login after out-of-band account creation).
func (m *Manager) getOrCreateProfile(ctx context.Context, id *identity.Identity) (*UserProfile, error) {
	data, err := m.docs.Get(ctx, usersCollection, id.UID)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return ProfileFromDoc(data), nil
	}

	profile := &UserProfile{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Followers:   []string{},
		Following:   []string{},
		IsPrivate:   false,
	}
	if err := m.docs.Set(ctx, usersCollection, id.UID, profile.docData(), false); err != nil {
		return nil, err
	}
	return profile, nil
}

// Signup creates the account, sets its display name and writes the
// profile document. CurrentUser is not set here; the provider's state
// notification does that.
func (m *Manager) Signup(ctx context.Context, email, password, displayName string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := m.provider.CreateAccount(ctx, m.sessionID, email, password)
	if err != nil {
		reason := identity.ReasonOf(err)
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: UserMessage(reason)})
		return &SignupError{Reason: reason, Err: err}
	}

	if err := m.provider.UpdateIdentity(ctx, id.UID, identity.Patch{DisplayName: &displayName}); err != nil {
		m.logger.Warn("SessionManager", "Failed to set display name on new account", map[string]interface{}{
			"uid":   id.UID,
			"error": err.Error(),
		})
	}

	profile := &UserProfile{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: displayName,
		Followers:   []string{},
		Following:   []string{},
		IsPrivate:   false,
	}
	if err := m.docs.Set(ctx, usersCollection, id.UID, profile.docData(), false); err != nil {
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return &SignupError{Reason: identity.ReasonNetwork, Err: err}
	}

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Account created!", Message: "Your account has been successfully created."})
	return nil
}

// Login clears the sticky auth error, then attempts sign-in. On an
// invalid-credential rejection it sets the fixed inline message so the
// form can render it in addition to the toast.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m.mu.Lock()
	m.state.AuthError = ""
	m.mu.Unlock()

	if _, err := m.provider.SignIn(ctx, m.sessionID, email, password); err != nil {
		reason := identity.ReasonOf(err)

		inline := genericLoginMessage
		if reason == identity.ReasonInvalidCredential {
			inline = invalidCredentialMessage
		}
		m.mu.Lock()
		m.state.AuthError = inline
		m.mu.Unlock()

		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: UserMessage(reason)})
		return &LoginError{Reason: reason, Err: err}
	}

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Logged in!", Message: "You've been successfully logged in."})
	return nil
}

// Logout signs out; CurrentUser clears via the state notification.
func (m *Manager) Logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := m.provider.SignOut(ctx, m.sessionID); err != nil {
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return err
	}

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Logged out!", Message: "You've been successfully logged out."})
	return nil
}

// UpdateUserProfile merge-writes the patch and optimistically applies it
// to the in-memory profile. The next auth-state refresh overrides both.
func (m *Manager) UpdateUserProfile(ctx context.Context, patch Patch) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m.mu.RLock()
	current := m.state.CurrentUser
	m.mu.RUnlock()
	if current == nil {
		return ErrNotAuthenticated
	}

	if err := m.docs.Set(ctx, usersCollection, current.UID, patch.docData(), true); err != nil {
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return err
	}

	m.mu.Lock()
	if m.state.CurrentUser != nil {
		updated := m.state.CurrentUser.clone()
		patch.applyTo(updated)
		m.state.CurrentUser = updated
	}
	m.mu.Unlock()

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Profile updated!", Message: "Your profile has been successfully updated."})
	return nil
}

// UploadProfileImage stores the file under profile_images/{uid}/{name}
// (last write wins on a reused filename), then updates the identity
// record and the profile document. Returns the public URL.
func (m *Manager) UploadProfileImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m.mu.RLock()
	current := m.state.CurrentUser
	m.mu.RUnlock()
	if current == nil {
		return "", ErrNotAuthenticated
	}

	path := fmt.Sprintf("profile_images/%s/%s", current.UID, filename)
	url, err := m.objects.Upload(ctx, path, r)
	if err != nil {
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return "", err
	}

	if err := m.provider.UpdateIdentity(ctx, current.UID, identity.Patch{PhotoURL: &url}); err != nil {
		m.logger.Warn("SessionManager", "Failed to update identity photo", map[string]interface{}{
			"uid":   current.UID,
			"error": err.Error(),
		})
	}

	if err := m.UpdateUserProfile(ctx, Patch{PhotoURL: &url}); err != nil {
		return "", err
	}

	return url, nil
}

// FollowUser adds target to the caller's following set, then adds the
// caller to the target's followers. The two writes are sequential and
// not transactional: a second-write failure leaves the graph asymmetric
// and is logged and propagated, never rolled back.
func (m *Manager) FollowUser(ctx context.Context, targetUID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m.mu.RLock()
	current := m.state.CurrentUser.clone()
	m.mu.RUnlock()
	if current == nil {
		return ErrNotAuthenticated
	}
	if targetUID == current.UID {
		return ErrSelfFollow
	}
	if contains(current.Following, targetUID) {
		return nil
	}

	following := append(append([]string(nil), current.Following...), targetUID)
	if err := m.UpdateUserProfile(ctx, Patch{Following: following}); err != nil {
		return err
	}

	if err := m.addFollowerToTarget(ctx, current.UID, targetUID); err != nil {
		m.logger.Error("SessionManager", "Follow second write failed, graph asymmetric", map[string]interface{}{
			"follower": current.UID,
			"target":   targetUID,
			"error":    err.Error(),
		})
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return err
	}

	m.publishEvent(ctx, "USER_FOLLOWED", map[string]interface{}{
		"follower_uid":  current.UID,
		"follower_name": current.DisplayName,
		"target_uid":    targetUID,
	})

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Followed!", Message: "You're now following this user."})
	return nil
}

// UnfollowUser is the symmetric removal with the same two-step caveat.
func (m *Manager) UnfollowUser(ctx context.Context, targetUID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m.mu.RLock()
	current := m.state.CurrentUser.clone()
	m.mu.RUnlock()
	if current == nil {
		return ErrNotAuthenticated
	}
	if !contains(current.Following, targetUID) {
		return nil
	}

	if err := m.UpdateUserProfile(ctx, Patch{Following: remove(current.Following, targetUID)}); err != nil {
		return err
	}

	if err := m.removeFollowerFromTarget(ctx, current.UID, targetUID); err != nil {
		m.logger.Error("SessionManager", "Unfollow second write failed, graph asymmetric", map[string]interface{}{
			"follower": current.UID,
			"target":   targetUID,
			"error":    err.Error(),
		})
		m.notify(notifier.Toast{Level: notifier.LevelError, Title: "Error", Message: err.Error()})
		return err
	}

	m.notify(notifier.Toast{Level: notifier.LevelInfo, Title: "Unfollowed!", Message: "You've unfollowed this user."})
	return nil
}

func (m *Manager) addFollowerToTarget(ctx context.Context, followerUID, targetUID string) error {
	data, err := m.docs.Get(ctx, usersCollection, targetUID)
	if err != nil {
		return err
	}
	if data == nil {
		// Target document vanished; mirror write is skipped, not failed.
		m.logger.Warn("SessionManager", "Follow target document missing, skipping mirror write", map[string]interface{}{
			"target": targetUID,
		})
		return nil
	}

	target := ProfileFromDoc(data)
	if contains(target.Followers, followerUID) {
		return nil
	}
	followers := append(target.Followers, followerUID)
	return m.docs.Set(ctx, usersCollection, targetUID, docstore.Data{"followers": toAnySlice(followers)}, true)
}

func (m *Manager) removeFollowerFromTarget(ctx context.Context, followerUID, targetUID string) error {
	data, err := m.docs.Get(ctx, usersCollection, targetUID)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	target := ProfileFromDoc(data)
	if !contains(target.Followers, followerUID) {
		return nil
	}
	return m.docs.Set(ctx, usersCollection, targetUID, docstore.Data{"followers": toAnySlice(remove(target.Followers, followerUID))}, true)
}

func (m *Manager) notify(toast notifier.Toast) {
	if m.notifier == nil {
		return
	}
	target := m.sessionID
	m.mu.RLock()
	if m.state.CurrentUser != nil {
		target = m.state.CurrentUser.UID
	}
	m.mu.RUnlock()
	m.notifier.Notify(target, toast)
}

func (m *Manager) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if m.events == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := m.events.Publish(ctx, evt); err != nil {
		m.logger.Warn("SessionManager", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
