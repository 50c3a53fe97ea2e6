package models

import (
	"strings"
	"time"
)

// InviteStatus defines lifecycle states for circle invites.
type InviteStatus string

const (
	// InviteStatusPending is the only state that accepts remind and revoke.
	InviteStatusPending InviteStatus = "pending"
	// InviteStatusAccepted is terminal and set by the external acceptance flow.
	InviteStatusAccepted InviteStatus = "accepted"
	// InviteStatusRevoked is terminal.
	InviteStatusRevoked InviteStatus = "revoked"
)

// Terminal reports whether no further remind or revoke is allowed.
func (s InviteStatus) Terminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusRevoked
}

// Invite is a shareable code granting join access to a group or community.
type Invite struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Kind            Kind         `gorm:"type:varchar(20);not null;index:idx_invite_circle" json:"kind"`
	CircleID        uint         `gorm:"not null;index:idx_invite_circle" json:"circle_id"`
	InviteCode      string       `gorm:"size:64;not null;uniqueIndex" json:"invite_code"`
	Email           *string      `gorm:"size:255;index" json:"email,omitempty"`
	Status          InviteStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvitedByUserID uint         `gorm:"not null" json:"invited_by_user_id"`
	RemindCount     int          `gorm:"not null;default:0" json:"remind_count"`
	LastRemindedAt  *time.Time   `json:"last_reminded_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// InviteLink builds the shareable join URL for code. It never touches the network.
func InviteLink(origin, code string) string {
	return strings.TrimRight(origin, "/") + "/signup?invite=" + code
}

// AllModels lists every persisted model for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&DirectConversation{},
		&Group{},
		&Community{},
		&Membership{},
		&Invite{},
	}
}
