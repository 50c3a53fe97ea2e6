package models

import "time"

// MembershipRole defines a member's role in a group or community.
type MembershipRole string

const (
	// MembershipRoleAdmin may manage the circle; the creator starts as admin.
	MembershipRoleAdmin MembershipRole = "admin"
	// MembershipRoleMember is the default member role.
	MembershipRoleMember MembershipRole = "member"
)

// Membership maps users to a group or community and tracks role and
// per-member inbox state.
type Membership struct {
	Kind        Kind           `gorm:"type:varchar(20);primaryKey" json:"kind"`
	CircleID    uint           `gorm:"primaryKey;autoIncrement:false" json:"circle_id"`
	UserID      uint           `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        MembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Archived    bool           `gorm:"not null;default:false" json:"archived"`
	UnreadCount int            `gorm:"not null;default:0" json:"unread_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
