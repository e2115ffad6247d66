package repositories

import (
	"errors"
	"fmt"

	"github.com/nuumi-app/backend/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyExists is returned when a relation that must be unique per
// (subject, user) already exists. Toggle callers treat it as benign.
var ErrAlreadyExists = errors.New("relation already exists")

// LikeRepository defines the interface for post-like data operations
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(postID string, userID uint) error
	GetLikesCountByPostID(postID string) (int64, error)
	HasUserLikedPost(postID string, userID uint) (bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like in PostgreSQL. Returns ErrAlreadyExists
// when the unique (post, user) index rejects the insert.
func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	err := r.db.Create(like).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

// DeleteLike deletes a like from PostgreSQL
func (r *PostgresLikeRepository) DeleteLike(postID string, userID uint) error {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("like not found")
	}
	return nil
}

// GetLikesCountByPostID retrieves the count of likes for a specific post
func (r *PostgresLikeRepository) GetLikesCountByPostID(postID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
