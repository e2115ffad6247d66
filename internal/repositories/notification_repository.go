package repositories

import (
	"github.com/nuumi-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByUserID(userID uint, limit int) ([]models.Notification, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (int64, error)
	MarkAllAsRead(userID uint) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByUserID retrieves a user's notifications, newest first
func (r *postgresNotificationRepository) GetByUserID(userID uint, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 50 {
		limit = 50
	}
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND read = false", userID).Count(&count).Error
	return count, err
}

// MarkAsRead marks one notification as read. Returns the number of rows
// that transitioned (0 when already read or not owned by the user), so
// callers can keep unread counters exact under repeated calls.
func (r *postgresNotificationRepository) MarkAsRead(notificationID, userID uint) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read = false", notificationID, userID).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// MarkAllAsRead marks every unread notification of a user as read and
// returns how many transitioned
func (r *postgresNotificationRepository) MarkAllAsRead(userID uint) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Update("read", true)
	return res.RowsAffected, res.Error
}
