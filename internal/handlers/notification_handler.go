package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info and display text
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
	Text  string              `json:"text"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		actorName := ""
		if n.ActorID != nil {
			if actor, ok := userCache[*n.ActorID]; ok {
				enriched[i].Actor = &actor
				actorName = actor.DisplayName
			} else if user, err := h.userRepository.GetUserByID(*n.ActorID); err == nil {
				compact := user.ToCompact()
				userCache[*n.ActorID] = compact
				enriched[i].Actor = &compact
				actorName = models.DisplayNameOf(user)
			}
		}
		enriched[i].Text = models.NotificationText(&enriched[i].Notification, actorName)
	}
	return enriched
}

// GetNotifications returns the user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	notifications, err := h.notificationRepository.GetByUserID(currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	unreadCount, _ := h.notificationRepository.GetUnreadCount(currentUserID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.enrichNotifications(notifications),
			"unreadCount":   unreadCount,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.GetUnreadCount(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks a notification as read. The response carries how many
// rows actually transitioned so clients can adjust unread counters
// exactly, even when the same notification is marked twice.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	transitioned, err := h.notificationRepository.MarkAsRead(uint(notifID), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": transitioned}})
}

// MarkAllAsRead marks all of the user's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	transitioned, err := h.notificationRepository.MarkAllAsRead(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": transitioned}})
}

// publishNotification fans a stored notification out on the hub so the
// recipient's open sessions pick it up without polling
func publishNotification(hub *realtime.Hub, notif *models.Notification) {
	row := map[string]interface{}{
		"id":          notif.ID,
		"user_id":     notif.UserID,
		"type":        notif.Type,
		"entity_id":   notif.EntityID,
		"entity_type": notif.EntityType,
		"content":     notif.Content,
		"read":        notif.Read,
		"created_at":  notif.CreatedAt,
	}
	if notif.ActorID != nil {
		row["actor_id"] = *notif.ActorID
	}
	hub.Publish(realtime.Event{
		Table:  realtime.TableNotifications,
		Action: realtime.ActionInsert,
		Row:    row,
	})
}
