package server

import (
	"context"
	"log/slog"

	"wayfarer/internal/featureflags"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// InboxStreamUpgrade rejects non-upgrade requests and callers the stream is
// not rolled out to. It runs after WebSocketAuthRequired.
func (s *Server) InboxStreamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, _ := c.Locals("userID").(uint)
	if !s.featureFlags.Enabled(featureflags.InboxStream, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Stream", "inbox"))
	}
	return c.Next()
}

// InboxStreamHandler pushes inbox_changed events to the caller. Clients
// refetch GET /api/inbox when one arrives.
func (s *Server) InboxStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("inbox stream rejected",
				slog.Uint64("user_id", uint64(uid)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		observability.WebSocketEventsTotal.WithLabelValues("connect").Inc()
		_, span := observability.StartStreamSpan(context.Background(), s.hub.Name(), "connect")
		span.End()

		go client.WritePump()
		client.ReadPump()
	})
}
