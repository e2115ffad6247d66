package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/repositories"
	"github.com/nuumi-app/backend/pkg/storage"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	mediaStore     storage.MediaStore
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, mediaStore storage.MediaStore) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		mediaStore:     mediaStore,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.POST("/posts/upload", h.UploadPostImage)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/users/:user_id/posts", h.GetPostsByUser)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		UserID:    strconv.FormatUint(uint64(currentUserID), 10),
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// UploadPostImage uploads an image file and returns its public URL
func (h *PostHandler) UploadPostImage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if h.mediaStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media storage not configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing image file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer file.Close()

	path := fmt.Sprintf("posts/%d/%d-%s", currentUserID, time.Now().UnixNano(), fileHeader.Filename)
	url, err := h.mediaStore.Upload(c.Request().Context(), path, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
	}

	return c.JSON(http.StatusCreated, echo.Map{"image_url": url})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostsByUser retrieves a user's posts, newest first
func (h *PostHandler) GetPostsByUser(c echo.Context) error {
	userID := c.Param("user_id")
	skip, limit := parsePagination(c)

	posts, err := h.postRepository.GetPostsByUserID(c.Request().Context(), userID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Ensure the user updating the post is the owner
	if post.UserID != strconv.FormatUint(uint64(currentUserID), 10) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if req.Content != "" {
		post.Content = req.Content
	}
	if req.ImageURLs != nil {
		post.ImageURLs = req.ImageURLs
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Ensure the user deleting the post is the owner
	if post.UserID != strconv.FormatUint(uint64(currentUserID), 10) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// parsePagination reads skip/limit query params with sane defaults
func parsePagination(c echo.Context) (int64, int64) {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return skip, limit
}
