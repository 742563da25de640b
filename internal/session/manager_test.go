package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeProvider mimics the hosted-identity contract: per-session state
// and replay of the current state on a fresh subscription.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount // email -> account
	current  map[string]*identity.Identity
	handlers map[string][]func(*identity.Identity)
	nextUID  int
}

type fakeAccount struct {
	uid         string
	password    string
	displayName string
	photoURL    string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]fakeAccount),
		current:  make(map[string]*identity.Identity),
		handlers: make(map[string][]func(*identity.Identity)),
	}
}

func (p *fakeProvider) setCurrent(sessionID string, id *identity.Identity) {
	p.mu.Lock()
	p.current[sessionID] = id
	handlers := append(([]func(*identity.Identity))(nil), p.handlers[sessionID]...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(id)
	}
}

func (p *fakeProvider) CreateAccount(ctx context.Context, sessionID, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, &identity.CredentialError{Reason: identity.ReasonEmailInUse, Message: "email in use"}
	}
	p.nextUID++
	acct := fakeAccount{uid: fmt.Sprintf("uid-%d", p.nextUID), password: password}
	p.accounts[email] = acct
	p.mu.Unlock()

	id := &identity.Identity{UID: acct.uid, Email: email}
	p.setCurrent(sessionID, id)
	return id, nil
}

func (p *fakeProvider) SignIn(ctx context.Context, sessionID, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok || acct.password != password {
		return nil, &identity.CredentialError{Reason: identity.ReasonInvalidCredential, Message: "invalid credentials"}
	}
	id := &identity.Identity{UID: acct.uid, Email: email, DisplayName: acct.displayName, PhotoURL: acct.photoURL}
	p.setCurrent(sessionID, id)
	return id, nil
}

func (p *fakeProvider) SignOut(ctx context.Context, sessionID string) error {
	p.setCurrent(sessionID, nil)
	return nil
}

func (p *fakeProvider) UpdateIdentity(ctx context.Context, uid string, patch identity.Patch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, acct := range p.accounts {
		if acct.uid != uid {
			continue
		}
		if patch.DisplayName != nil {
			acct.displayName = *patch.DisplayName
		}
		if patch.PhotoURL != nil {
			acct.photoURL = *patch.PhotoURL
		}
		p.accounts[email] = acct
	}
	return nil
}

func (p *fakeProvider) OnAuthStateChange(sessionID string, handler func(*identity.Identity)) (func(), error) {
	p.mu.Lock()
	p.handlers[sessionID] = append(p.handlers[sessionID], handler)
	initial := p.current[sessionID]
	p.mu.Unlock()
	go handler(initial)
	return func() {}, nil
}

// fakeDocs is a map-backed document store with optional per-key write
// failures to exercise the non-transactional follow path.
type fakeDocs struct {
	mu      sync.Mutex
	docs    map[string]docstore.Data // collection/id -> data
	failSet map[string]error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string]docstore.Data), failSet: make(map[string]error)}
}

func key(collection, id string) string { return collection + "/" + id }

func (f *fakeDocs) Get(ctx context.Context, collection, id string) (docstore.Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[key(collection, id)]
	if !ok {
		return nil, nil
	}
	out := docstore.Data{}
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDocs) Set(ctx context.Context, collection, id string, data docstore.Data, merge bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(collection, id)
	if err := f.failSet[k]; err != nil {
		return err
	}
	if !merge {
		copied := docstore.Data{}
		for kk, v := range data {
			copied[kk] = v
		}
		f.docs[k] = copied
		return nil
	}
	existing, ok := f.docs[k]
	if !ok {
		existing = docstore.Data{}
		f.docs[k] = existing
	}
	for kk, v := range data {
		existing[kk] = v
	}
	return nil
}

func (f *fakeDocs) Query(ctx context.Context, collection string, filters []docstore.Filter, order *docstore.Order, limit int) ([]docstore.Data, error) {
	return nil, nil
}

type fakeObjects struct{}

func (fakeObjects) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	return "http://localhost:3000/uploads/" + path, nil
}

type recordedToast struct {
	target string
	toast  notifier.Toast
}

type fakeNotifier struct {
	mu     sync.Mutex
	toasts []recordedToast
}

func (f *fakeNotifier) Notify(target string, toast notifier.Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, recordedToast{target: target, toast: toast})
}

func (f *fakeNotifier) last() (recordedToast, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == 0 {
		return recordedToast{}, false
	}
	return f.toasts[len(f.toasts)-1], true
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEvents) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType())
	}
	return out
}

type testEnv struct {
	provider *fakeProvider
	docs     *fakeDocs
	notifier *fakeNotifier
	events   *fakeEvents
}

func newTestManager(t *testing.T, sessionID string) (*Manager, *testEnv) {
	t.Helper()
	env := &testEnv{
		provider: newFakeProvider(),
		docs:     newFakeDocs(),
		notifier: &fakeNotifier{},
		events:   &fakeEvents{},
	}
	m, err := NewManager(sessionID, env.provider, env.docs, fakeObjects{}, env.notifier, env.events, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, env
}

func awaitUser(t *testing.T, m *Manager) *UserProfile {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	u, err := m.AwaitUser(ctx)
	require.NoError(t, err)
	return u
}

func signup(t *testing.T, m *Manager, email, name string) *UserProfile {
	t.Helper()
	require.NoError(t, m.Signup(context.Background(), email, "password123", name))
	return awaitUser(t, m)
}

func TestSignupCreatesProfileAndPopulatesState(t *testing.T) {
	m, env := newTestManager(t, "s1")

	user := signup(t, m, "alice@example.com", "Alice")

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Empty(t, user.Followers)
	assert.Empty(t, user.Following)

	doc, err := env.docs.Get(context.Background(), "users", user.UID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Alice", doc["displayName"])

	state := m.State()
	assert.False(t, state.Loading)
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, user.UID, state.CurrentUser.UID)
}

func TestSignupDuplicateEmailFails(t *testing.T) {
	m, _ := newTestManager(t, "s1")
	signup(t, m, "alice@example.com", "Alice")

	var sErr *SignupError
	err := m.Signup(context.Background(), "alice@example.com", "password123", "Alice Again")
	require.Error(t, err)
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, identity.ReasonEmailInUse, sErr.Reason)
}

func TestLoginInvalidCredentialSetsInlineError(t *testing.T) {
	m, env := newTestManager(t, "s1")

	err := m.Login(context.Background(), "ghost@example.com", "nope")
	require.Error(t, err)

	var lErr *LoginError
	require.ErrorAs(t, err, &lErr)
	assert.Equal(t, identity.ReasonInvalidCredential, lErr.Reason)

	state := m.State()
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", state.AuthError)
	assert.Nil(t, state.CurrentUser)

	last, ok := env.notifier.last()
	require.True(t, ok)
	assert.Equal(t, notifier.LevelError, last.toast.Level)
}

func TestLoginClearsPreviousAuthError(t *testing.T) {
	m, env := newTestManager(t, "s1")
	_, err := env.provider.CreateAccount(context.Background(), "other", "alice@example.com", "password123")
	require.NoError(t, err)

	require.Error(t, m.Login(context.Background(), "alice@example.com", "wrong"))
	assert.NotEmpty(t, m.State().AuthError)

	require.NoError(t, m.Login(context.Background(), "alice@example.com", "password123"))
	assert.Empty(t, m.State().AuthError)

	user := awaitUser(t, m)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestLogoutClearsCurrentUser(t *testing.T) {
	m, _ := newTestManager(t, "s1")
	signup(t, m, "alice@example.com", "Alice")

	require.NoError(t, m.Logout(context.Background()))

	assert.Eventually(t, func() bool {
		return m.State().CurrentUser == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateUserProfileOptimistic(t *testing.T) {
	m, env := newTestManager(t, "s1")
	user := signup(t, m, "alice@example.com", "Alice")

	bio := "Hello there"
	private := true
	require.NoError(t, m.UpdateUserProfile(context.Background(), Patch{Bio: &bio, IsPrivate: &private}))

	state := m.State()
	assert.Equal(t, "Hello there", state.CurrentUser.Bio)
	assert.True(t, state.CurrentUser.IsPrivate)

	doc, err := env.docs.Get(context.Background(), "users", user.UID)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", doc["bio"])
	assert.Equal(t, true, doc["isPrivate"])
	// Untouched fields survive the merge.
	assert.Equal(t, "Alice", doc["displayName"])
}

func TestUpdateUserProfileRequiresAuth(t *testing.T) {
	m, _ := newTestManager(t, "s1")
	bio := "nope"
	err := m.UpdateUserProfile(context.Background(), Patch{Bio: &bio})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUploadProfileImage(t *testing.T) {
	m, env := newTestManager(t, "s1")
	user := signup(t, m, "alice@example.com", "Alice")

	url, err := m.UploadProfileImage(context.Background(), "me.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/uploads/profile_images/"+user.UID+"/me.png", url)

	state := m.State()
	assert.Equal(t, url, state.CurrentUser.PhotoURL)

	doc, _ := env.docs.Get(context.Background(), "users", user.UID)
	assert.Equal(t, url, doc["photoURL"])
}

func followFixture(t *testing.T) (*Manager, *UserProfile, *UserProfile, *testEnv) {
	t.Helper()
	m, env := newTestManager(t, "s1")
	alice := signup(t, m, "alice@example.com", "Alice")

	bob := &UserProfile{UID: "uid-bob", Email: "bob@example.com", DisplayName: "Bob", Followers: []string{}, Following: []string{}}
	require.NoError(t, env.docs.Set(context.Background(), "users", bob.UID, bob.docData(), false))
	return m, alice, bob, env
}

func TestFollowUserUpdatesBothSides(t *testing.T) {
	m, alice, bob, env := followFixture(t)

	require.NoError(t, m.FollowUser(context.Background(), bob.UID))

	state := m.State()
	assert.Contains(t, state.CurrentUser.Following, bob.UID)

	aliceDoc, _ := env.docs.Get(context.Background(), "users", alice.UID)
	assert.Contains(t, asStringSlice(aliceDoc["following"]), bob.UID)

	bobDoc, _ := env.docs.Get(context.Background(), "users", bob.UID)
	assert.Contains(t, asStringSlice(bobDoc["followers"]), alice.UID)

	assert.Contains(t, env.events.types(), "USER_FOLLOWED")
}

func TestFollowSelfRejected(t *testing.T) {
	m, alice, _, _ := followFixture(t)
	err := m.FollowUser(context.Background(), alice.UID)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestFollowIdempotent(t *testing.T) {
	m, _, bob, env := followFixture(t)

	require.NoError(t, m.FollowUser(context.Background(), bob.UID))
	require.NoError(t, m.FollowUser(context.Background(), bob.UID))

	bobDoc, _ := env.docs.Get(context.Background(), "users", bob.UID)
	assert.Len(t, asStringSlice(bobDoc["followers"]), 1)
	assert.Len(t, env.events.types(), 1)
}

func TestFollowSecondWriteFailureLeavesGraphAsymmetric(t *testing.T) {
	m, alice, bob, env := followFixture(t)

	env.docs.failSet[key("users", bob.UID)] = errors.New("write refused")

	err := m.FollowUser(context.Background(), bob.UID)
	require.Error(t, err)

	// First write stands; there is no rollback.
	aliceDoc, _ := env.docs.Get(context.Background(), "users", alice.UID)
	assert.Contains(t, asStringSlice(aliceDoc["following"]), bob.UID)

	bobDoc, _ := env.docs.Get(context.Background(), "users", bob.UID)
	assert.NotContains(t, asStringSlice(bobDoc["followers"]), alice.UID)
}

func TestFollowMissingTargetSkipsMirrorWrite(t *testing.T) {
	m, _, _, _ := followFixture(t)

	err := m.FollowUser(context.Background(), "uid-ghost")
	require.NoError(t, err)

	state := m.State()
	assert.Contains(t, state.CurrentUser.Following, "uid-ghost")
}

func TestUnfollowUser(t *testing.T) {
	m, alice, bob, env := followFixture(t)
	require.NoError(t, m.FollowUser(context.Background(), bob.UID))

	require.NoError(t, m.UnfollowUser(context.Background(), bob.UID))

	state := m.State()
	assert.NotContains(t, state.CurrentUser.Following, bob.UID)

	bobDoc, _ := env.docs.Get(context.Background(), "users", bob.UID)
	assert.NotContains(t, asStringSlice(bobDoc["followers"]), alice.UID)
}

func TestUnfollowNotFollowingIsNoOp(t *testing.T) {
	m, _, bob, env := followFixture(t)

	require.NoError(t, m.UnfollowUser(context.Background(), bob.UID))
	assert.Empty(t, env.events.types())
}
