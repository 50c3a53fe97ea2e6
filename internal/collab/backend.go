// Package collab defines the backend operations the inbox, membership,
// lifecycle and wizard controllers consume, and an in-process adapter that
// binds them to the service layer for one acting user.
package collab

import (
	"context"

	"wayfarer/internal/models"
	"wayfarer/internal/service"
)

// Backend is the collaborator surface. Every call acts on behalf of a single
// user fixed when the Backend is built.
type Backend interface {
	ListDirect(ctx context.Context, archived bool) ([]models.DirectConversation, error)
	ListGroups(ctx context.Context, archived bool) ([]models.Group, error)
	ListCommunities(ctx context.Context, archived bool) ([]models.Community, error)

	ArchiveDirect(ctx context.Context, id uint, archive bool) error
	ArchiveGroup(ctx context.Context, id uint, archive bool) error
	ArchiveCommunity(ctx context.Context, id uint, archive bool) error

	DeleteDirect(ctx context.Context, id uint) error
	DeleteGroup(ctx context.Context, id uint) error
	DeleteCommunity(ctx context.Context, id uint) error

	LeaveGroup(ctx context.Context, id uint) error
	LeaveCommunity(ctx context.Context, id uint) error

	CreateDirect(ctx context.Context, peerID uint) (*models.DirectConversation, error)
	CreateGroup(ctx context.Context, in service.CreateCircleInput) (*models.Group, error)
	CreateCommunity(ctx context.Context, in service.CreateCircleInput) (*models.Community, error)

	AddGroupMember(ctx context.Context, id, userID uint) error
	AddCommunityMember(ctx context.Context, id, userID uint) error
	RemoveGroupMember(ctx context.Context, id, userID uint) error
	RemoveCommunityMember(ctx context.Context, id, userID uint) error

	CreateInvite(ctx context.Context, kind models.Kind, circleID uint, email *string) (*models.Invite, error)
	ListInvites(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error)
	RevokeInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error
	RemindInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error

	UpdateGroup(ctx context.Context, id uint, in service.CircleUpdate) error
	UpdateCommunity(ctx context.Context, id uint, in service.CircleUpdate) error
	UploadAvatar(ctx context.Context, filename string, content []byte) (string, error)

	SearchUsers(ctx context.Context, term string) ([]models.User, error)
}
