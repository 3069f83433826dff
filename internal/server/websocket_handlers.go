package server

import (
	"context"
	"encoding/json"

	"twitt/internal/middleware"
	"twitt/internal/notifications"
	"twitt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var pongFrame = []byte(`{"type":"pong"}`)

// WebSocketTicketAuth consumes the one-time ticket before the upgrade. The
// ticket is the only identity binding for the connection.
func (s *Server) WebSocketTicketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID, err := s.tokens.ConsumeWSTicket(c.UserContext(), c.Query("ticket"))
	if err != nil {
		return s.respondError(c, err)
	}

	c.Locals(middleware.LocalUserID, userID)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
	return c.Next()
}

// NotificationsWebSocket handles GET /api/ws/notifications
// @Summary Notification stream
// @Description Upgrades to a WebSocket delivering like and post notifications as {"type","notification","payload"} frames
// @Tags websocket
// @Param ticket query string true "One-time ticket from POST /ws/ticket"
// @Success 101
// @Failure 401 {object} models.APIResponse
// @Failure 426 {object} models.APIResponse
// @Router /ws/notifications [get]
func (s *Server) NotificationsWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userID, ok := conn.Locals(middleware.LocalUserID).(uuid.UUID)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"reason":"unauthorized"}}`))
			_ = conn.Close()
			return
		}
		ctx = observability.WithUserID(ctx, userID)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			s.wsLog.LogError(ctx, userID, err, "register")
			frame, _ := json.Marshal(notifications.Message{
				Type:    "error",
				Payload: map[string]any{"reason": err.Error()},
			})
			_ = conn.WriteMessage(websocket.TextMessage, frame)
			_ = conn.Close()
			return
		}
		s.wsLog.LogConnect(ctx, userID, s.hub.ConnCount(userID))

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var in struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(message, &in) == nil && in.Type == "ping" {
				c.TrySend(pongFrame)
			}
		}

		hello, _ := json.Marshal(notifications.Message{
			Type:    "connected",
			Payload: map[string]any{"user_id": userID.String()},
		})
		client.TrySend(hello)

		// The connection goes back to the upgrader's pool when this handler
		// returns, so the writer must be gone by then.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			client.WritePump()
		}()
		client.ReadPump()
		<-writerDone

		s.wsLog.LogDisconnect(ctx, userID, "closed")
	})
}
