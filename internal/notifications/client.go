package notifications

import (
	"sync"
	"time"

	"twitt/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384

	sendBufferSize = 256

	// Inbound frames per second a client may send before frames are dropped.
	inboundRate  = 5
	inboundBurst = 10
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// WSHub is the part of a hub a Client needs.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub WSHub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	UserID uuid.UUID

	// Called with each inbound frame that passes the rate limit.
	IncomingHandler func(*Client, []byte)

	// Called when the peer shows signs of life (frame or pong).
	OnActivity func(userID uuid.UUID)

	limiter *rate.Limiter

	// Closed when ReadPump returns; WritePump stops on it.
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a Client with an empty outbound queue.
func NewClient(hub WSHub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		UserID:  userID,
		Send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
		done:    make(chan struct{}),
	}
}

// Done is closed once the read side of the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// ReadPump keeps the connection alive and unregisters the client when the
// peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.closeOnce.Do(func() { close(c.done) })
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.Logger.Debug("websocket read failed",
					zap.String("user_id", c.UserID.String()), zap.Error(err))
			}
			break
		}
		c.touch()

		if !c.limiter.Allow() {
			observability.WebSocketEventsTotal.WithLabelValues("inbound_rate_limited").Inc()
			continue
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump drains Send onto the connection and pings the peer. It returns
// when the read side ends, so the caller may wait for it before releasing the
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. A full queue drops the message,
// queues a drop notice when there is room, and returns false.
func (c *Client) TrySend(message []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
			sent = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		observability.Logger.Warn("client buffer full, dropped message",
			zap.String("user_id", c.UserID.String()), zap.String("hub", c.Hub.Name()))

		select {
		case c.Send <- dropNotice:
		default:
		}
		return false
	}
}

func (c *Client) touch() {
	if c.OnActivity != nil {
		c.OnActivity(c.UserID)
	}
}
