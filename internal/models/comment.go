package models

import "gorm.io/gorm"

// Comment represents a comment on a post. ParentID, when set, references
// another comment on the same post, forming a reply tree.
type Comment struct {
	gorm.Model
	PostID   string `json:"post_id" gorm:"index"` // ID of the post the comment belongs to (MongoDB ObjectID as string)
	UserID   uint   `json:"user_id" gorm:"index"` // ID of the user who made the comment
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
	Content  string `json:"content" validate:"required,min=1,max=500"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
