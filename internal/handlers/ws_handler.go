package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
	"github.com/nuumi-app/backend/pkg/metrics"
)

// WSHandler streams change events to websocket clients. Each connection
// carries exactly one subscription, mirroring one mounted view; closing
// the connection tears the subscription down synchronously.
type WSHandler struct {
	hub                    *realtime.Hub
	conversationRepository repositories.ConversationRepository
	upgrader               websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub, conversationRepo repositories.ConversationRepository) *WSHandler {
	return &WSHandler{
		hub:                    hub,
		conversationRepository: conversationRepo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterWSRoutes registers the websocket route
func (h *WSHandler) RegisterWSRoutes(g *echo.Group) {
	g.GET("/ws", h.Stream)
}

// Stream upgrades the connection and forwards events for one topic:
// "messages" (requires conversation_id, participant only),
// "notifications" (the caller's own), or "stories".
func (h *WSHandler) Stream(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var table string
	var filter realtime.Filter
	switch topic := c.QueryParam("topic"); topic {
	case "messages":
		conversationID, err := strconv.ParseUint(c.QueryParam("conversation_id"), 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
		}
		member, err := h.conversationRepository.IsParticipant(uint(conversationID), currentUserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !member {
			return echo.NewHTTPError(http.StatusForbidden, "You don't have access to this conversation")
		}
		table = realtime.TableMessages
		filter = realtime.Filter{"conversation_id": strconv.FormatUint(conversationID, 10)}
	case "notifications":
		table = realtime.TableNotifications
		filter = realtime.Filter{"user_id": strconv.FormatUint(uint64(currentUserID), 10)}
	case "stories":
		table = realtime.TableStories
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown topic")
	}

	sub, err := h.hub.Subscribe(table, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Realtime unavailable")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		sub.Close()
		return err
	}
	metrics.WebsocketConnections.Inc()
	defer func() {
		sub.Close()
		conn.Close()
		metrics.WebsocketConnections.Dec()
	}()

	// Read pump: the client sends nothing meaningful, but reading is how
	// we notice the connection is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				sub.Close()
				return
			}
		}
	}()

	for ev := range sub.Events() {
		if err := conn.WriteJSON(ev); err != nil {
			break
		}
	}
	return nil
}
