package models

import "time"

// DirectConversation is a 1:1 conversation between two users.
// The pair is stored ordered (UserAID < UserBID) so it is unique per couple;
// archive, delete and unread state are tracked per side.
type DirectConversation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserAID       uint       `gorm:"not null;uniqueIndex:idx_direct_pair" json:"user_a_id"`
	UserA         *User      `gorm:"foreignKey:UserAID" json:"user_a,omitempty"`
	UserBID       uint       `gorm:"not null;uniqueIndex:idx_direct_pair" json:"user_b_id"`
	UserB         *User      `gorm:"foreignKey:UserBID" json:"user_b,omitempty"`
	LastMessage   string     `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	ArchivedByA   bool       `gorm:"not null;default:false" json:"-"`
	ArchivedByB   bool       `gorm:"not null;default:false" json:"-"`
	DeletedByA    bool       `gorm:"not null;default:false" json:"-"`
	DeletedByB    bool       `gorm:"not null;default:false" json:"-"`
	UnreadA       int        `gorm:"not null;default:0" json:"-"`
	UnreadB       int        `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OrderedPair returns the two user IDs in storage order.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Involves reports whether userID is one of the two participants.
func (d *DirectConversation) Involves(userID uint) bool {
	return d.UserAID == userID || d.UserBID == userID
}

// Peer returns the other participant as seen by viewerID.
func (d *DirectConversation) Peer(viewerID uint) *User {
	if d.UserAID == viewerID {
		return d.UserB
	}
	return d.UserA
}

// PeerID returns the other participant's ID as seen by viewerID.
func (d *DirectConversation) PeerID(viewerID uint) uint {
	if d.UserAID == viewerID {
		return d.UserBID
	}
	return d.UserAID
}

// ArchivedFor reports the archive flag on viewerID's side.
func (d *DirectConversation) ArchivedFor(viewerID uint) bool {
	if d.UserAID == viewerID {
		return d.ArchivedByA
	}
	return d.ArchivedByB
}

// UnreadFor returns viewerID's unread counter.
func (d *DirectConversation) UnreadFor(viewerID uint) int {
	if d.UserAID == viewerID {
		return d.UnreadA
	}
	return d.UnreadB
}

// SideColumns returns the archive, delete and unread column names for userID's side.
func (d *DirectConversation) SideColumns(userID uint) (archived, deleted, unread string) {
	if d.UserAID == userID {
		return "archived_by_a", "deleted_by_a", "unread_a"
	}
	return "archived_by_b", "deleted_by_b", "unread_b"
}

// DeletedFor reports whether viewerID has deleted the conversation on their side.
func (d *DirectConversation) DeletedFor(viewerID uint) bool {
	if d.UserAID == viewerID {
		return d.DeletedByA
	}
	return d.DeletedByB
}
