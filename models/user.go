// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account, including profile fields and
// password-reset state.
type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Username            string     `gorm:"unique;not null" json:"username"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	Age                 *int       `json:"age"`
	Gender              string     `json:"gender"`
	Stress              string     `json:"stress"`
	DreamTheme          string     `json:"dreamTheme"`
	Role                string     `gorm:"default:user" json:"role"`
	ResetToken          *string    `gorm:"index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"-"`
	Favorites           []Favorite `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// PublicUser is the subset of a User safe to return to clients.
type PublicUser struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Age        *int      `json:"age"`
	Gender     string    `json:"gender"`
	Stress     string    `json:"stress"`
	DreamTheme string    `json:"dreamTheme"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Age:        u.Age,
		Gender:     u.Gender,
		Stress:     u.Stress,
		DreamTheme: u.DreamTheme,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

// SessionUser is the snapshot of an authenticated user stored in the session.
type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
