package models

import "time"

// Circle holds the fields shared by groups and communities.
type Circle struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:120;not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	AvatarURL       string     `gorm:"size:512" json:"avatar_url"`
	IsPublic        bool       `gorm:"not null" json:"is_public"`
	CreatedByUserID uint       `gorm:"not null;index" json:"created_by_user_id"`
	LastMessage     string     `gorm:"type:text" json:"last_message"`
	LastMessageAt   *time.Time `json:"last_message_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Projected per viewer from the membership row; never persisted on the circle.
	Archived    bool `gorm:"-" json:"archived"`
	UnreadCount int  `gorm:"-" json:"unread_count"`
	MemberCount int  `gorm:"-" json:"member_count"`
}

// Group is a multi-party circle that defaults to private.
type Group struct {
	Circle
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

// Community is a multi-party circle that defaults to public.
type Community struct {
	Circle
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// DefaultIsPublic returns the privacy default for a circle kind.
func DefaultIsPublic(kind Kind) bool {
	return kind == KindCommunity
}
