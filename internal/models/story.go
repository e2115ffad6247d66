package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story represents a user's story stored in MongoDB. A story is visible
// only while the current time is strictly before ExpiresAt.
type Story struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	MediaURL  string             `json:"media_url" bson:"media_url"`
	MediaType string             `json:"media_type" bson:"media_type"` // "image" or "video"
	Caption   string             `json:"caption,omitempty" bson:"caption,omitempty"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// StorySeen tracks which stories a user has seen (PostgreSQL)
type StorySeen struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	StoryID string    `json:"story_id" gorm:"index;uniqueIndex:idx_story_user_seen"`
	UserID  uint      `json:"user_id" gorm:"index;uniqueIndex:idx_story_user_seen"`
	SeenAt  time.Time `json:"seen_at"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	MediaURL  string `json:"media_url" validate:"required,url"`
	MediaType string `json:"media_type" validate:"required,oneof=image video"`
	Caption   string `json:"caption,omitempty" validate:"omitempty,max=200"`
}
