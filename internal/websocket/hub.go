// Package websocket pushes assistant events (answers, titles, cleared and
// deleted sessions) to the browser tabs of the user they concern.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"dashboard-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	logModule = "PUSH"

	// relayChannel carries pushes between instances when redis is configured
	relayChannel = "assistant_push"
)

// Envelope is the frame every client receives
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type relayMessage struct {
	Origin  string          `json:"origin"`
	UserId  uuid.UUID       `json:"user_id"`
	Message json.RawMessage `json:"message"`
}

// Hub tracks live connections per user. A user may hold several (tabs,
// devices); each one gets every push.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*Client

	rdb        *redis.Client
	instanceId string
	logger     logger.ILogger
}

// NewHub accepts a nil redis client, in which case pushes stay local
func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Run relays pushes from other instances until ctx ends, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.relay(ctx)
	}
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.userId] = append(h.clients[client.userId], client)
	count := len(h.clients[client.userId])
	h.mu.Unlock()

	h.logger.Info(logModule, "Client connected", map[string]interface{}{
		"user_id":     client.userId.String(),
		"connections": count,
	})
}

// Unregister is safe to call more than once for the same client
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.userId]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.clients[client.userId] = append(clients[:i:i], clients[i+1:]...)
		close(client.send)
		if len(h.clients[client.userId]) == 0 {
			delete(h.clients, client.userId)
		}
		h.logger.Info(logModule, "Client disconnected", map[string]interface{}{"user_id": client.userId.String()})
		return
	}
}

// Connected is the number of live connections of the user
func (h *Hub) Connected(userId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

// Push delivers one event to every connection of userId, here and, with
// redis, on the other instances.
func (h *Hub) Push(ctx context.Context, userId uuid.UUID, eventType string, data interface{}) {
	frame, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error(logModule, "Failed to encode push", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	h.deliver(userId, frame)

	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(relayMessage{Origin: h.instanceId, UserId: userId, Message: frame})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(ctx, relayChannel, payload).Err(); err != nil {
		h.logger.Warn(logModule, "Failed to relay push", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

// deliver never blocks: a client whose buffer is full is disconnected
func (h *Hub) deliver(userId uuid.UUID, frame []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[userId] {
		select {
		case client.send <- frame:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(logModule, "Client send buffer full, dropping connection", map[string]interface{}{"user_id": userId.String()})
		h.Unregister(client)
	}
}

func (h *Hub) relay(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				h.logger.Warn(logModule, "Dropping malformed relay message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if rm.Origin == h.instanceId {
				continue
			}
			h.deliver(rm.UserId, rm.Message)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userId, clients := range h.clients {
		for _, client := range clients {
			close(client.send)
		}
		delete(h.clients, userId)
	}
}
