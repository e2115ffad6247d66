package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
	appsync "github.com/nuumi-app/backend/internal/sync"
	"github.com/nuumi-app/backend/pkg/storage"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyRepository  repositories.StoryRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	mediaStore       storage.MediaStore
	hub              *realtime.Hub
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(
	storyRepo repositories.StoryRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	mediaStore storage.MediaStore,
	hub *realtime.Hub,
) *StoryHandler {
	return &StoryHandler{
		storyRepository:  storyRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
		mediaStore:       mediaStore,
		hub:              hub,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.POST("/stories/upload", h.UploadStoryMedia)
	g.GET("/stories", h.GetStoriesFeed)
	g.GET("/stories/:id", h.GetStory)
	g.POST("/stories/:id/seen", h.MarkSeen)
}

// CreateStory creates a story that expires 24 hours after creation
func (h *StoryHandler) CreateStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	story := &models.Story{
		UserID:    strconv.FormatUint(uint64(currentUserID), 10),
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		Caption:   req.Caption,
	}
	if err := h.storyRepository.CreateStory(c.Request().Context(), story); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.hub.Publish(realtime.Event{
		Table:  realtime.TableStories,
		Action: realtime.ActionInsert,
		Row: map[string]interface{}{
			"id":         story.ID.Hex(),
			"user_id":    story.UserID,
			"media_url":  story.MediaURL,
			"media_type": story.MediaType,
			"caption":    story.Caption,
			"expires_at": story.ExpiresAt,
			"created_at": story.CreatedAt,
		},
	})

	return c.JSON(http.StatusCreated, story)
}

// UploadStoryMedia uploads a media file and returns its public URL
func (h *StoryHandler) UploadStoryMedia(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if h.mediaStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media storage not configured")
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing media file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer file.Close()

	path := fmt.Sprintf("stories/%d/%d-%s", currentUserID, time.Now().UnixNano(), fileHeader.Filename)
	url, err := h.mediaStore.Upload(c.Request().Context(), path, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload media")
	}

	return c.JSON(http.StatusCreated, echo.Map{"media_url": url})
}

// StoryWithSeen pairs a story with the viewer's seen flag
type StoryWithSeen struct {
	models.Story
	Seen bool `json:"seen"`
}

// GetStoriesFeed returns active stories from the user and the people they
// follow, newest first, with seen flags
func (h *StoryHandler) GetStoriesFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	followingIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ownerIDs := make([]string, 0, len(followingIDs)+1)
	ownerIDs = append(ownerIDs, strconv.FormatUint(uint64(currentUserID), 10))
	for _, id := range followingIDs {
		ownerIDs = append(ownerIDs, strconv.FormatUint(uint64(id), 10))
	}

	stories, err := h.storyRepository.GetStoriesByUserIDs(c.Request().Context(), ownerIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// The query already excludes expired stories; filter again at the
	// response instant so nothing expires in between.
	stories = appsync.FilterActiveStories(stories, time.Now())

	storyIDs := make([]string, len(stories))
	for i := range stories {
		storyIDs[i] = stories[i].ID.Hex()
	}
	seen, err := h.storyRepository.GetSeenStoryIDs(currentUserID, storyIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	result := make([]StoryWithSeen, len(stories))
	for i := range stories {
		result[i] = StoryWithSeen{Story: stories[i], Seen: seen[stories[i].ID.Hex()]}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stories": result}})
}

// GetStory returns a single active story; an expired story is not found
func (h *StoryHandler) GetStory(c echo.Context) error {
	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	return c.JSON(http.StatusOK, story)
}

// MarkSeen records that the current user has seen a story
func (h *StoryHandler) MarkSeen(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	storyID := c.Param("id")
	if _, err := h.storyRepository.GetStoryByID(c.Request().Context(), storyID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}

	seen := &models.StorySeen{StoryID: storyID, UserID: currentUserID}
	if err := h.storyRepository.MarkSeen(seen); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
