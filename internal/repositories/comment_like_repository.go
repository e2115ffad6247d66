package repositories

import (
	"errors"
	"fmt"

	"github.com/nuumi-app/backend/internal/models"
	"gorm.io/gorm"
)

// CommentLikeRepository defines the interface for comment-like data operations
type CommentLikeRepository interface {
	CreateCommentLike(like *models.CommentLike) error
	DeleteCommentLike(commentID, userID uint) error
	GetLikesCountByCommentID(commentID uint) (int64, error)
	HasUserLikedComment(commentID, userID uint) (bool, error)
	GetLikedCommentIDs(userID uint, commentIDs []uint) (map[uint]bool, error)
}

// PostgresCommentLikeRepository implements CommentLikeRepository for PostgreSQL
type PostgresCommentLikeRepository struct {
	db *gorm.DB
}

// NewPostgresCommentLikeRepository creates a new PostgresCommentLikeRepository
func NewPostgresCommentLikeRepository(db *gorm.DB) *PostgresCommentLikeRepository {
	return &PostgresCommentLikeRepository{db: db}
}

// CreateCommentLike creates a new comment like. Returns ErrAlreadyExists
// when the unique (comment, user) index rejects the insert.
func (r *PostgresCommentLikeRepository) CreateCommentLike(like *models.CommentLike) error {
	err := r.db.Create(like).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

// DeleteCommentLike deletes a comment like
func (r *PostgresCommentLikeRepository) DeleteCommentLike(commentID, userID uint) error {
	res := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment like not found")
	}
	return nil
}

// GetLikesCountByCommentID retrieves the count of likes for a comment
func (r *PostgresCommentLikeRepository) GetLikesCountByCommentID(commentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasUserLikedComment checks if a user has liked a specific comment
func (r *PostgresCommentLikeRepository) HasUserLikedComment(commentID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.CommentLike{}).Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikedCommentIDs returns which of the given comments the user has liked
func (r *PostgresCommentLikeRepository) GetLikedCommentIDs(userID uint, commentIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(commentIDs) == 0 {
		return result, nil
	}
	var likes []models.CommentLike
	err := r.db.Where("user_id = ? AND comment_id IN ?", userID, commentIDs).Find(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, l := range likes {
		result[l.CommentID] = true
	}
	return result, nil
}
