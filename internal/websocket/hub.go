package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"mediagrid-be/internal/model"
	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Hub fans realtime frames out to connected clients. Clients are keyed
// by target id: the identity uid after login, or the session id for a
// screen that has not authenticated yet. When Redis is configured,
// frames are also published cross-instance.
type Hub struct {
	// Registered clients map: target id -> list of clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Target] = append(h.clients[client.Target], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"target": client.Target})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Target]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.Target] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.Target]) == 0 {
					delete(h.clients, client.Target)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"target": client.Target})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify implements notifier.Notifier: toasts ride the same websocket
// as notifications, typed so the client can route them to the toaster.
func (h *Hub) Notify(target string, toast notifier.Toast) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "toast",
		"data": toast,
	})
	h.deliver(target, data)
}

// Send pushes a stored notification to every device of one user.
func (h *Hub) Send(userID string, notification model.Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	h.deliver(userID, data)
}

// Broadcast sends a notification to ALL connected clients.
func (h *Hub) Broadcast(notification model.Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	var stalled []*Client
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				stalled = append(stalled, client)
			}
		}
	}
	h.mu.RUnlock()
	h.dropStalled(stalled)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"target":  "*",
			"message": json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

func (h *Hub) deliver(target string, data []byte) {
	h.mu.RLock()
	var stalled []*Client
	for _, client := range h.clients[target] {
		select {
		case client.Send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()
	h.dropStalled(stalled)

	// Always publish for multi-device support across instances.
	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"target":  target,
			"message": json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

// dropStalled hands clients whose send buffers filled to the
// unregister loop. Run is the only place that closes Send: a client
// queued here more than once is closed on the first pass and skipped
// on the rest. Frames are pushed under the read lock, so a push can
// never race the close, which happens under the write lock.
func (h *Hub) dropStalled(stalled []*Client) {
	for _, client := range stalled {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"target": client.Target})
		h.unregister <- client
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to "cluster_events"; messages carry the
	// target id so each instance forwards only to clients it holds.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Target  string          `json:"target"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}

		h.mu.RLock()
		var stalled []*Client
		if payload.Target == "*" {
			for _, clients := range h.clients {
				for _, client := range clients {
					select {
					case client.Send <- payload.Message:
					default:
						stalled = append(stalled, client)
					}
				}
			}
		} else {
			for _, client := range h.clients[payload.Target] {
				select {
				case client.Send <- payload.Message:
				default:
					stalled = append(stalled, client)
				}
			}
		}
		h.mu.RUnlock()
		h.dropStalled(stalled)
	}
}
