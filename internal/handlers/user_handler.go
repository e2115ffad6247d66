package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/repositories"
	"github.com/nuumi-app/backend/pkg/storage"
	"gorm.io/gorm"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	mediaStore       storage.MediaStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, mediaStore storage.MediaStore) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		mediaStore:       mediaStore,
	}
}

// RegisterUserRoutes registers user profile routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetCurrentUser)
	g.PUT("/users/me", h.UpdateCurrentUser)
	g.POST("/users/me/avatar", h.UploadAvatar)
	g.GET("/users/:user_id", h.GetUserProfile)
	g.GET("/users/search", h.SearchUsers)
}

// UserProfile is a user enriched with follower counts
type UserProfile struct {
	models.User
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

func (h *UserHandler) buildProfile(user *models.User) UserProfile {
	followers, _ := h.followRepository.GetFollowersCount(user.ID)
	following, _ := h.followRepository.GetFollowingCount(user.ID)
	return UserProfile{User: *user, FollowersCount: followers, FollowingCount: following}
}

// GetCurrentUser returns the authenticated user's profile
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.buildProfile(user)})
}

// UpdateCurrentUser updates the authenticated user's profile
func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// UploadAvatar uploads an avatar image and stores its URL on the profile
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if h.mediaStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media storage not configured")
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing avatar file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer file.Close()

	path := fmt.Sprintf("avatars/%d/%d-%s", currentUserID, time.Now().UnixNano(), fileHeader.Filename)
	url, err := h.mediaStore.Upload(c.Request().Context(), path, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload avatar")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	user.AvatarURL = url
	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"avatar_url": url}})
}

// GetUserProfile returns another user's public profile
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.buildProfile(user)})
}

// SearchUsers searches users by username or display name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing search query")
	}

	users, err := h.userRepository.SearchUsers(query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": compact}})
}
