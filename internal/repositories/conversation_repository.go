package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/nuumi-app/backend/internal/models"
	"gorm.io/gorm"
)

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	ResolveOrCreateDirect(userA, userB uint) (uint, bool, error)
	GetConversationByID(id uint) (*models.Conversation, error)
	GetParticipants(conversationID uint) ([]models.ConversationParticipant, error)
	IsParticipant(conversationID, userID uint) (bool, error)
	GetConversationIDsForUser(userID uint) ([]uint, error)
}

// PostgresConversationRepository implements ConversationRepository for PostgreSQL
type PostgresConversationRepository struct {
	db *gorm.DB
}

// NewPostgresConversationRepository creates a new PostgresConversationRepository
func NewPostgresConversationRepository(db *gorm.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// pairKey canonicalizes a user pair so (a,b) and (b,a) map to the same key
func pairKey(userA, userB uint) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

// ResolveOrCreateDirect returns the ID of the direct conversation between
// the two users, creating one if none exists. The second return value is
// true when a new conversation was created. Group conversations (more than
// two participants) are never matched. Concurrent creation for the same
// pair is resolved by the unique pair key: the loser of the race re-reads
// the winner's row.
func (r *PostgresConversationRepository) ResolveOrCreateDirect(userA, userB uint) (uint, bool, error) {
	key := pairKey(userA, userB)

	// Fast path: canonical key written at creation time.
	var conv models.Conversation
	err := r.db.Where("pair_key = ?", key).First(&conv).Error
	if err == nil {
		return conv.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	// Legacy path: intersect both users' conversations and keep the ones
	// with exactly two participants.
	var mine []uint
	if err := r.db.Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userA).
		Pluck("conversation_id", &mine).Error; err != nil {
		return 0, false, err
	}
	if len(mine) > 0 {
		var shared []uint
		if err := r.db.Model(&models.ConversationParticipant{}).
			Where("user_id = ? AND conversation_id IN ?", userB, mine).
			Pluck("conversation_id", &shared).Error; err != nil {
			return 0, false, err
		}
		for _, id := range shared {
			var count int64
			if err := r.db.Model(&models.ConversationParticipant{}).
				Where("conversation_id = ?", id).Count(&count).Error; err != nil {
				return 0, false, err
			}
			if count == 2 {
				return id, false, nil
			}
		}
	}

	// No existing direct conversation: create one with both participant
	// rows in a single transaction.
	newConv := models.Conversation{PairKey: &key}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newConv).Error; err != nil {
			return err
		}
		now := time.Now()
		participants := []models.ConversationParticipant{
			{ConversationID: newConv.ID, UserID: userA, JoinedAt: now},
			{ConversationID: newConv.ID, UserID: userB, JoinedAt: now},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another client created the conversation first.
			var existing models.Conversation
			if lookupErr := r.db.Where("pair_key = ?", key).First(&existing).Error; lookupErr != nil {
				return 0, false, lookupErr
			}
			return existing.ID, false, nil
		}
		return 0, false, err
	}
	return newConv.ID, true, nil
}

// GetConversationByID retrieves a conversation by ID
func (r *PostgresConversationRepository) GetConversationByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetParticipants retrieves all participants of a conversation
func (r *PostgresConversationRepository) GetParticipants(conversationID uint) ([]models.ConversationParticipant, error) {
	var participants []models.ConversationParticipant
	if err := r.db.Where("conversation_id = ?", conversationID).Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// IsParticipant checks whether a user belongs to a conversation
func (r *PostgresConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetConversationIDsForUser retrieves all conversation IDs a user participates in
func (r *PostgresConversationRepository) GetConversationIDsForUser(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}
