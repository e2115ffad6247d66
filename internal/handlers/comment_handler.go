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
	appsync "github.com/nuumi-app/backend/internal/sync"
	"gorm.io/gorm"
)

// CommentHandler handles HTTP requests related to comments and their
// reply trees
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	commentLikeRepository  repositories.CommentLikeRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	commentLikeRepo repositories.CommentLikeRepository,
	notifRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		commentLikeRepository:  commentLikeRepo,
		notificationRepository: notifRepo,
		hub:                    hub,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentTree)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/likes", h.LikeComment)
	g.DELETE("/comments/:id/likes", h.UnlikeComment)
}

// CreateComment creates a comment or a reply on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Verify post exists
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// A reply's parent must be a comment on the same post
	if req.ParentID != nil {
		parent, err := h.commentRepository.GetCommentByID(*req.ParentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment not found")
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   currentUserID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Increment comments count in the post
	go h.postRepository.IncrementCommentsCount(context.Background(), postID)

	h.notifyPostOwner(post, currentUserID)

	return c.JSON(http.StatusCreated, comment)
}

// CommentView is a tree node enriched with like data
type CommentView struct {
	models.Comment
	LikesCount int64         `json:"likes_count"`
	Liked      bool          `json:"liked"`
	Replies    []CommentView `json:"replies,omitempty"`
}

// GetCommentTree returns a post's comments as a reply tree. The optional
// depth query param limits nesting; omitted or negative means unlimited.
func (h *CommentHandler) GetCommentTree(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")

	comments, err := h.commentRepository.GetCommentsByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	maxDepth := -1
	if d := c.QueryParam("depth"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil {
			maxDepth = parsed
		}
	}

	commentIDs := make([]uint, len(comments))
	for i := range comments {
		commentIDs[i] = comments[i].ID
	}
	liked, err := h.commentLikeRepository.GetLikedCommentIDs(currentUserID, commentIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tree := appsync.BuildCommentTree(comments)
	views := h.renderNodes(tree.Roots(), 0, maxDepth, liked)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"comments": views}})
}

func (h *CommentHandler) renderNodes(nodes []*appsync.CommentNode, depth, maxDepth int, liked map[uint]bool) []CommentView {
	if !appsync.WithinDepth(depth, maxDepth) {
		return nil
	}
	views := make([]CommentView, 0, len(nodes))
	for _, n := range nodes {
		count, _ := h.commentLikeRepository.GetLikesCountByCommentID(n.Comment.ID)
		views = append(views, CommentView{
			Comment:    n.Comment,
			LikesCount: count,
			Liked:      liked[n.Comment.ID],
			Replies:    h.renderNodes(n.Children, depth+1, maxDepth, liked),
		})
	}
	return views
}

// UpdateComment updates an existing comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Ensure the user updating the comment is the owner
	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	comment.Content = req.Content

	if err := h.commentRepository.UpdateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Ensure the user deleting the comment is the owner
	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(uint(commentID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Decrement comments count in the post
	go h.postRepository.DecrementCommentsCount(context.Background(), comment.PostID)

	return c.NoContent(http.StatusNoContent)
}

// LikeComment handles liking a comment; duplicates are benign
func (h *CommentHandler) LikeComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	if _, err := h.commentRepository.GetCommentByID(uint(commentID)); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	like := &models.CommentLike{CommentID: uint(commentID), UserID: currentUserID}
	if err := h.commentLikeRepository.CreateCommentLike(like); err != nil {
		if !errors.Is(err, repositories.ErrAlreadyExists) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": true}})
}

// UnlikeComment handles unliking a comment; a missing like is benign
func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	if err := h.commentLikeRepository.DeleteCommentLike(uint(commentID), currentUserID); err != nil {
		if err.Error() != "comment like not found" {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": false}})
}

// notifyPostOwner creates a comment notification unless the commenter
// owns the post
func (h *CommentHandler) notifyPostOwner(post *models.Post, actorID uint) {
	ownerID, err := strconv.ParseUint(post.UserID, 10, 32)
	if err != nil || uint(ownerID) == actorID {
		return
	}
	actor, _ := h.userRepository.GetUserByID(actorID)
	notif := &models.Notification{
		UserID:     uint(ownerID),
		ActorID:    &actorID,
		Type:       models.NotificationTypeComment,
		EntityID:   post.ID.Hex(),
		EntityType: "post",
		Content:    models.DisplayNameOf(actor) + " commented on your post",
	}
	if err := h.notificationRepository.CreateNotification(notif); err != nil {
		return
	}
	publishNotification(h.hub, notif)
}
