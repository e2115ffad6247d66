package models

import "time"

// Conversation is a chat thread between participants. Direct (2-party)
// conversations carry a canonical PairKey so concurrent creation for the
// same pair collapses onto one row.
type Conversation struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	PairKey   *string    `json:"-" gorm:"uniqueIndex"` // "minID:maxID" for direct conversations, nil for groups
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ConversationParticipant links a user to a conversation
type ConversationParticipant struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"index;uniqueIndex:idx_conversation_user"`
	UserID         uint      `json:"user_id" gorm:"index;uniqueIndex:idx_conversation_user"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Message is a chat message. Immutable once written except for the read
// flag, which only ever transitions false -> true.
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"index"`
	SenderID       uint      `json:"sender_id" gorm:"index"`
	Content        string    `json:"content"`
	Read           bool      `json:"read" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// MarkReadRequest defines the request body for batch read marking
type MarkReadRequest struct {
	MessageIDs []uint `json:"message_ids" validate:"required,min=1,dive,required"`
}

// ConversationSummary is one entry in a user's conversation list
type ConversationSummary struct {
	Conversation Conversation `json:"conversation"`
	Recipient    UserCompact  `json:"recipient"`
	LastMessage  *Message     `json:"last_message,omitempty"`
	UnreadCount  int64        `json:"unread_count"`
}
