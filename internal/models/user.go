package models

import "time"

// User is the identity record returned by the user search collaborator.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	FullName  string    `gorm:"size:120" json:"full_name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
