package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"mediagrid-be/internal/model"
	"mediagrid-be/internal/notifier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() model.Notification {
	return model.Notification{ID: uuid.New(), UserID: "alice", TypeCode: "USER_FOLLOWED", Title: "New follower"}
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestHub() *Hub {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()
	return hub
}

func registerClient(t *testing.T, hub *Hub, target string, buffer int) *Client {
	t.Helper()
	client := &Client{Hub: hub, Target: target, Send: make(chan []byte, buffer)}
	hub.register <- client
	require.Eventually(t, func() bool {
		return clientCount(hub, target) == 1
	}, time.Second, 5*time.Millisecond)
	return client
}

func clientCount(hub *Hub, target string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[target])
}

func TestNotifyDeliversTypedToastFrame(t *testing.T) {
	hub := newTestHub()
	client := registerClient(t, hub, "alice", 4)

	hub.Notify("alice", notifier.Toast{Level: notifier.LevelInfo, Title: "Followed!", Message: "hi"})

	select {
	case frame := <-client.Send:
		var envelope struct {
			Type string         `json:"type"`
			Data notifier.Toast `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &envelope))
		assert.Equal(t, "toast", envelope.Type)
		assert.Equal(t, "Followed!", envelope.Data.Title)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestStalledClientDroppedOnce(t *testing.T) {
	hub := newTestHub()
	client := registerClient(t, hub, "alice", 1)

	// Fill the buffer so the next delivery stalls.
	client.Send <- []byte("backlog")

	hub.Notify("alice", notifier.Toast{Level: notifier.LevelInfo, Title: "one"})
	hub.Notify("alice", notifier.Toast{Level: notifier.LevelInfo, Title: "two"})

	assert.Eventually(t, func() bool {
		return clientCount(hub, "alice") == 0
	}, time.Second, 5*time.Millisecond)

	// The unregister loop closed Send exactly once; drain the backlog
	// and observe the close.
	<-client.Send
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-client.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcastDropsEveryStalledClient(t *testing.T) {
	hub := newTestHub()

	first := &Client{Hub: hub, Target: "alice", Send: make(chan []byte, 1)}
	second := &Client{Hub: hub, Target: "bob", Send: make(chan []byte, 1)}
	hub.register <- first
	hub.register <- second
	require.Eventually(t, func() bool {
		return clientCount(hub, "alice") == 1 && clientCount(hub, "bob") == 1
	}, time.Second, 5*time.Millisecond)

	first.Send <- []byte("backlog")
	second.Send <- []byte("backlog")

	done := make(chan struct{})
	go func() {
		hub.Broadcast(testNotification())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on stalled clients")
	}

	assert.Eventually(t, func() bool {
		return clientCount(hub, "alice") == 0 && clientCount(hub, "bob") == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDeliverAfterUnregisterIsNoOp(t *testing.T) {
	hub := newTestHub()
	client := registerClient(t, hub, "alice", 1)

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return clientCount(hub, "alice") == 0
	}, time.Second, 5*time.Millisecond)

	hub.Notify("alice", notifier.Toast{Level: notifier.LevelInfo, Title: "late"})

	// Still alive: another target registers and receives fine.
	other := registerClient(t, hub, "bob", 4)
	hub.Notify("bob", notifier.Toast{Level: notifier.LevelInfo, Title: "hello"})
	select {
	case <-other.Send:
	case <-time.After(time.Second):
		t.Fatal("hub loop died after late delivery")
	}
}
