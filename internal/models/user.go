package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Username    string `json:"username" gorm:"uniqueIndex"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	Password    string `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
}

// UserCompact is the reduced user shape embedded in enriched responses
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ToCompact returns the compact representation of a user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// DisplayNameOf resolves the name shown for a user: display name first,
// then username, then "Anonymous". Nil-safe.
func DisplayNameOf(u *User) string {
	if u == nil {
		return "Anonymous"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Anonymous"
}

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=30"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"required,email"`
	FirebaseUID string `json:"firebase_uid" validate:"required"` // Firebase UID will be provided by the client after Firebase Auth
}

type CreateLocalUserRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=30"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Username    string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=50"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
