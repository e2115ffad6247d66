package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/repositories"
)

// FeedHandler serves the home feed: recent posts enriched with author
// info and the viewer's like state
type FeedHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	likeRepository repositories.LikeRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		likeRepository: likeRepo,
	}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// FeedPost is a post enriched for feed rendering
type FeedPost struct {
	models.Post
	Author *models.UserCompact `json:"author,omitempty"`
	Liked  bool                `json:"liked"`
}

// GetFeed returns recent posts, newest first, with author and like state
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	skip, limit := parsePagination(c)

	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	authorCache := make(map[string]*models.UserCompact)
	feed := make([]FeedPost, len(posts))
	for i, post := range posts {
		feed[i] = FeedPost{Post: post}

		if author, ok := authorCache[post.UserID]; ok {
			feed[i].Author = author
		} else if ownerID, err := strconv.ParseUint(post.UserID, 10, 32); err == nil {
			if user, err := h.userRepository.GetUserByID(uint(ownerID)); err == nil {
				compact := user.ToCompact()
				authorCache[post.UserID] = &compact
				feed[i].Author = &compact
			}
		}

		liked, err := h.likeRepository.HasUserLikedPost(post.ID.Hex(), currentUserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		feed[i].Liked = liked
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": feed}})
}
