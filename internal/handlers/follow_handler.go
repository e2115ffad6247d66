package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
)

// FollowHandler handles HTTP requests related to follow relationships.
// Following behaves like a toggle: following someone you already follow
// or unfollowing someone you don't is a no-op that still succeeds.
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		hub:                    hub,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:user_id/follow", h.FollowUser)
	g.DELETE("/users/:user_id/follow", h.UnfollowUser)
	g.GET("/users/:user_id/followers", h.GetFollowers)
	g.GET("/users/:user_id/following", h.GetFollowing)
	g.GET("/users/:user_id/follow-status", h.GetFollowStatus)
}

func parseTargetUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(id), nil
}

// FollowUser makes the current user follow the target user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	if targetID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself")
	}

	if _, err := h.userRepository.GetUserByID(targetID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyFollowed(targetID, currentUserID)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser makes the current user unfollow the target user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	if err := h.followRepository.DeleteFollow(currentUserID, targetID); err != nil {
		if err.Error() != "follow relationship not found" {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// GetFollowers lists the users following the target user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	users, err := h.followRepository.GetFollowers(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"followers": compact}})
}

// GetFollowing lists the users the target user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	users, err := h.followRepository.GetFollowing(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": compact}})
}

// GetFollowStatus reports whether the current user follows the target
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	following, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}

// notifyFollowed creates a follow notification for the followed user
func (h *FollowHandler) notifyFollowed(targetID, actorID uint) {
	actor, _ := h.userRepository.GetUserByID(actorID)
	notif := &models.Notification{
		UserID:     targetID,
		ActorID:    &actorID,
		Type:       models.NotificationTypeFollow,
		EntityID:   strconv.FormatUint(uint64(actorID), 10),
		EntityType: "user",
		Content:    models.DisplayNameOf(actor) + " started following you",
	}
	if err := h.notificationRepository.CreateNotification(notif); err != nil {
		return
	}
	publishNotification(h.hub, notif)
}
