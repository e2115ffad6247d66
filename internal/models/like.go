package models

import "time"

// Like represents a like on a post. A user may like a post at most once.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"index;uniqueIndex:idx_post_user_like"` // MongoDB ObjectID as string
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_post_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike represents a like on a comment
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	CreatedAt time.Time `json:"created_at"`
}
