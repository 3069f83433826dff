// Package notifications delivers like and post notifications to connected users.
package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"

	"twitt/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
)

// Hub maps a user id to the set of that user's open notification sockets.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uuid.UUID]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	presence   *ConnectionManager
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notifications" }

// NewHub creates a hub. Presence is mirrored to Redis when a client is given.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &Hub{
		conns:    make(map[uuid.UUID]map[*Client]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		presence: NewConnectionManager(redisClient),
	}
}

// Register adds a connection for userID. Over-limit joins are rejected.
func (h *Hub) Register(userID uuid.UUID, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		observability.WebSocketEventsTotal.WithLabelValues("rejected_server_limit").Inc()
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		observability.WebSocketEventsTotal.WithLabelValues("rejected_user_limit").Inc()
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uuid.UUID) {
		h.presence.Touch(context.Background(), uid)
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	observability.WebSocketEventsTotal.WithLabelValues("connect").Inc()
	h.presence.Register(context.Background(), userID)

	return client, nil
}

// UnregisterClient removes a connection. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
		observability.WebSocketEventsTotal.WithLabelValues("disconnect").Inc()
		h.presence.Unregister(context.Background(), client.UserID)
	}
}

// Broadcast queues message on every connection of userID and returns how many
// connections accepted it.
func (h *Hub) Broadcast(userID uuid.UUID, message string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	if !ok {
		return 0
	}
	data := []byte(message)
	queued := 0
	for c := range clients {
		if c.TrySend(data) {
			queued++
		}
	}
	return queued
}

// ConnCount returns the number of open connections for userID.
func (h *Hub) ConnCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// IsOnline reports whether a user holds a socket on this or another process.
func (h *Hub) IsOnline(ctx context.Context, userID uuid.UUID) bool {
	return h.presence.IsOnline(ctx, userID)
}

// StartWiring subscribes to the per-user Redis channels and forwards each
// message to the matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		raw, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok {
			observability.Logger.Warn("unexpected notification channel", zap.String("channel", channel))
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			observability.Logger.Warn("invalid notification channel", zap.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every socket with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.closeOnce.Do(func() {
		close(h.shutdown)
		h.presence.Stop()

		h.mu.Lock()
		for userID, userConns := range h.conns {
			for client := range userConns {
				observability.WebSocketConnectionsTotal.Dec()
				if client.Conn == nil {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					observability.Logger.Debug("write close frame failed", zap.String("user_id", userID.String()), zap.Error(err))
				}
				if err := client.Conn.Close(); err != nil {
					observability.Logger.Debug("close websocket failed", zap.String("user_id", userID.String()), zap.Error(err))
				}
			}
		}
		h.conns = make(map[uuid.UUID]map[*Client]struct{})
		h.totalConns = 0
		h.mu.Unlock()

		close(h.done)
	})
	return nil
}

// Done is closed once Shutdown has finished.
func (h *Hub) Done() <-chan struct{} { return h.done }
