package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
	"gorm.io/gorm"
)

// ConversationHandler handles direct-message HTTP requests
type ConversationHandler struct {
	conversationRepository repositories.ConversationRepository
	messageRepository      repositories.MessageRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *ConversationHandler {
	return &ConversationHandler{
		conversationRepository: conversationRepo,
		messageRepository:      messageRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		hub:                    hub,
	}
}

// RegisterConversationRoutes registers conversation-related routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/conversations/with/:user_id", h.ResolveDirectConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.PUT("/conversations/:id/read", h.MarkConversationRead)
	g.PUT("/messages/read", h.MarkMessagesRead)
}

// ResolveDirectConversation finds or creates the direct conversation
// between the current user and the target user. Calling it twice returns
// the same conversation ID both times.
func (h *ConversationHandler) ResolveDirectConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if currentUserID == uint(targetID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot start a conversation with yourself")
	}

	// Check the target user exists
	if _, err := h.userRepository.GetUserByID(uint(targetID)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	conversationID, created, err := h.conversationRepository.ResolveOrCreateDirect(currentUserID, uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if created {
		// Seed the new conversation with an opener, like a first hello.
		message := &models.Message{
			ConversationID: conversationID,
			SenderID:       currentUserID,
			Content:        "Hello! I started this conversation.",
		}
		if err := h.messageRepository.CreateMessage(message); err == nil {
			h.publishMessage(message)
			h.notifyRecipients(conversationID, currentUserID)
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"conversation_id": conversationID, "created": created})
}

// ListConversations returns the current user's conversations with the
// other participant, last message and unread count
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ids, err := h.conversationRepository.GetConversationIDsForUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]models.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		conv, err := h.conversationRepository.GetConversationByID(id)
		if err != nil {
			continue
		}
		summary := models.ConversationSummary{Conversation: *conv}

		participants, err := h.conversationRepository.GetParticipants(id)
		if err == nil {
			for _, p := range participants {
				if p.UserID == currentUserID {
					continue
				}
				if other, err := h.userRepository.GetUserByID(p.UserID); err == nil {
					summary.Recipient = other.ToCompact()
				}
				break
			}
		}

		if last, err := h.messageRepository.GetLastMessage(id); err == nil {
			summary.LastMessage = last
		}
		if unread, err := h.messageRepository.GetUnreadCount(id, currentUserID); err == nil {
			summary.UnreadCount = unread
		}
		summaries = append(summaries, summary)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"conversations": summaries}})
}

// GetMessages returns a conversation's ordered message history
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversationID, err := h.authorizeParticipant(c, currentUserID)
	if err != nil {
		return err
	}

	messages, err := h.messageRepository.GetByConversationID(conversationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"messages": messages}})
}

// SendMessage stores a message and fans it out on the conversation's
// change channel. The sender also receives the insert event; clients
// dedupe against their optimistic copy by message ID.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversationID, err := h.authorizeParticipant(c, currentUserID)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       currentUserID,
		Content:        req.Content,
	}
	if err := h.messageRepository.CreateMessage(message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publishMessage(message)
	h.notifyRecipients(conversationID, currentUserID)

	return c.JSON(http.StatusCreated, message)
}

// MarkConversationRead marks every unread message addressed to the
// current user in the conversation as read
func (h *ConversationHandler) MarkConversationRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversationID, err := h.authorizeParticipant(c, currentUserID)
	if err != nil {
		return err
	}

	ids, err := h.messageRepository.GetUnreadIDs(conversationID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	transitioned, err := h.messageRepository.MarkRead(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": transitioned}})
}

// MarkMessagesRead marks an explicit batch of messages as read. Applying
// the same batch twice reports zero additional transitions.
func (h *ConversationHandler) MarkMessagesRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	transitioned, err := h.messageRepository.MarkRead(req.MessageIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": transitioned}})
}

// authorizeParticipant parses the :id param and verifies membership
func (h *ConversationHandler) authorizeParticipant(c echo.Context, userID uint) (uint, error) {
	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}
	ok, err := h.conversationRepository.IsParticipant(uint(conversationID), userID)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return 0, echo.NewHTTPError(http.StatusForbidden, "You don't have access to this conversation")
	}
	return uint(conversationID), nil
}

func (h *ConversationHandler) publishMessage(message *models.Message) {
	h.hub.Publish(realtime.Event{
		Table:  realtime.TableMessages,
		Action: realtime.ActionInsert,
		Row: map[string]interface{}{
			"id":              message.ID,
			"conversation_id": message.ConversationID,
			"sender_id":       message.SenderID,
			"content":         message.Content,
			"read":            message.Read,
			"created_at":      message.CreatedAt,
		},
	})
}

// notifyRecipients creates a message notification for every other
// participant and fans it out
func (h *ConversationHandler) notifyRecipients(conversationID, senderID uint) {
	participants, err := h.conversationRepository.GetParticipants(conversationID)
	if err != nil {
		return
	}
	sender, _ := h.userRepository.GetUserByID(senderID)
	for _, p := range participants {
		if p.UserID == senderID {
			continue
		}
		notif := &models.Notification{
			UserID:     p.UserID,
			ActorID:    &senderID,
			Type:       models.NotificationTypeMessage,
			EntityID:   strconv.FormatUint(uint64(conversationID), 10),
			EntityType: "conversation",
			Content:    models.DisplayNameOf(sender) + " sent you a message",
		}
		if err := h.notificationRepository.CreateNotification(notif); err != nil {
			continue
		}
		publishNotification(h.hub, notif)
	}
}
