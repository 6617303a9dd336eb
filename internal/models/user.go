// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered author in the blog application.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	PasswordHash string    `gorm:"column:password_digest;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Articles     []Article `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserResponse is the only user shape sent to clients.
type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// Identity is the authenticated requester resolved for a single request.
// It is passed explicitly to every service call and dropped with the request.
type Identity struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// IdentityOf builds the request identity for a resolved user.
func IdentityOf(u *User) Identity {
	return Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}
}
