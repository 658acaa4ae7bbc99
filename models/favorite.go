package models

import "time"

// ChatMessage is a single prompt/response pair of an interpretation
// conversation.
type ChatMessage struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Favorite is a saved interpretation conversation owned by one user.
// Conversation holds the JSON-serialized chat history.
type Favorite struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Conversation string    `gorm:"not null" json:"conversation"`
	CreatedAt    time.Time `json:"created_at"`
}
