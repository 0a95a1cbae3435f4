package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"bcct-chatbot-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "bcct:chat_events"

// Hub fans chat responses out to every connection a user has open on a
// session, on this instance and, through Redis, on the others.
type Hub struct {
	// session id -> connections (one per device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb        *redis.Client
	instanceID string
	logger     logger.ILogger
}

type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	Message   json.RawMessage `json:"message"`
}

// NewHub accepts a nil rdb for single-instance deployments.
func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"user_id":    client.UserID,
				"session_id": client.SessionID,
			})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.SessionID]
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
	}
}

// Deliver sends a frame to the user's local connections on the session and
// publishes it for the other instances. Connections of other users on the
// same session id get nothing.
func (h *Hub) Deliver(sessionID, userID string, frame []byte) {
	h.deliverLocal(sessionID, userID, frame)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, SessionID: sessionID, UserID: userID, Message: frame})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Cluster publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) deliverLocal(sessionID, userID string, frame []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[sessionID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{
				"session_id": sessionID,
			})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// Connections reports how many local connections follow a session.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var cm clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &cm); err != nil {
			h.logger.Warn("Hub", "Unreadable cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		if cm.Origin == h.instanceID {
			continue
		}
		h.deliverLocal(cm.SessionID, cm.UserID, cm.Message)
	}
}
