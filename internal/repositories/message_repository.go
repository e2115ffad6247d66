package repositories

import (
	"github.com/nuumi-app/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(message *models.Message) error
	GetByConversationID(conversationID uint) ([]models.Message, error)
	GetLastMessage(conversationID uint) (*models.Message, error)
	MarkRead(ids []uint) (int64, error)
	GetUnreadCount(conversationID, userID uint) (int64, error)
	GetUnreadIDs(conversationID, userID uint) ([]uint, error)
}

// PostgresMessageRepository implements MessageRepository for PostgreSQL
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// CreateMessage creates a new message in PostgreSQL
func (r *PostgresMessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetByConversationID retrieves a conversation's messages in send order
func (r *PostgresMessageRepository) GetByConversationID(conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// GetLastMessage retrieves the most recent message of a conversation, or
// nil when the conversation is empty
func (r *PostgresMessageRepository) GetLastMessage(conversationID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkRead sets read=true on exactly the given messages that are still
// unread and returns how many actually transitioned. Applying it twice has
// no additional effect.
func (r *PostgresMessageRepository) MarkRead(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&models.Message{}).
		Where("id IN ? AND read = ?", ids, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// GetUnreadCount counts messages in a conversation not yet read by the
// given user (messages they did not send)
func (r *PostgresMessageRepository) GetUnreadCount(conversationID, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, userID, false).
		Count(&count).Error
	return count, err
}

// GetUnreadIDs retrieves the IDs of unread messages addressed to the user
func (r *PostgresMessageRepository) GetUnreadIDs(conversationID, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, userID, false).
		Pluck("id", &ids).Error
	return ids, err
}
