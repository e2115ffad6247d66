package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
)

// LikeHandler handles HTTP requests related to post likes. Likes follow
// toggle semantics: liking an already-liked post or unliking an unliked
// one reports success, since the store already holds the target state.
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		hub:                    hub,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	// Verify post exists
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Check if user has already liked the post
	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": true}})
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}
	if err := h.likeRepository.CreateLike(like); err != nil {
		// A concurrent toggle won the insert; the relation exists either way.
		if !errors.Is(err, repositories.ErrAlreadyExists) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": true}})
	}

	// Increment likes count in the post
	go h.postRepository.IncrementLikesCount(context.Background(), postID)

	h.notifyPostOwner(post, currentUserID)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"liked": true}})
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if err := h.likeRepository.DeleteLike(postID, currentUserID); err != nil {
		if err.Error() == "like not found" {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": false}})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Decrement likes count in the post
	go h.postRepository.DecrementLikesCount(context.Background(), postID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": false}})
}

// GetLikesCountForPost retrieves the total number of likes for a specific post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID := c.Param("post_id")

	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "likes_count": count})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "user_id": currentUserID, "has_liked": hasLiked})
}

// notifyPostOwner creates a like notification unless the liker owns the post
func (h *LikeHandler) notifyPostOwner(post *models.Post, actorID uint) {
	ownerID, err := strconv.ParseUint(post.UserID, 10, 32)
	if err != nil || uint(ownerID) == actorID {
		return
	}
	actor, _ := h.userRepository.GetUserByID(actorID)
	notif := &models.Notification{
		UserID:     uint(ownerID),
		ActorID:    &actorID,
		Type:       models.NotificationTypeLike,
		EntityID:   post.ID.Hex(),
		EntityType: "post",
		Content:    models.DisplayNameOf(actor) + " liked your post",
	}
	if err := h.notificationRepository.CreateNotification(notif); err != nil {
		return
	}
	publishNotification(h.hub, notif)
}
