package models

import "time"

// Notification types
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
	NotificationTypeMessage = "message"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index"` // recipient
	ActorID    *uint     `json:"actor_id,omitempty" gorm:"index"`
	Type       string    `json:"type" gorm:"size:30;index"` // like, comment, follow, message
	EntityID   string    `json:"entity_id,omitempty"`       // post ID, comment ID, conversation ID
	EntityType string    `json:"entity_type,omitempty" gorm:"size:20"`
	Content    string    `json:"content,omitempty"`
	Read       bool      `json:"read" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// NotificationText renders the toast/line text for a notification given
// the resolved actor name.
func NotificationText(n *Notification, actorName string) string {
	if actorName == "" {
		actorName = "Someone"
	}
	switch n.Type {
	case NotificationTypeLike:
		return actorName + " liked your post"
	case NotificationTypeComment:
		return actorName + " commented on your post"
	case NotificationTypeFollow:
		return actorName + " started following you"
	case NotificationTypeMessage:
		return actorName + " sent you a message"
	default:
		return "You have a new notification"
	}
}
