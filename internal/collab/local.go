package collab

import (
	"context"

	"wayfarer/internal/models"
	"wayfarer/internal/service"
)

// Services bundles the service layer a Local adapter dispatches to.
type Services struct {
	Direct  *service.DirectService
	Circles *service.CircleService
	Invites *service.InviteService
	Users   *service.UserService
	Avatars *service.AvatarService
}

// Local implements Backend in-process on top of the service layer.
type Local struct {
	userID uint
	svc    Services
}

var _ Backend = (*Local)(nil)

// NewLocal binds svc to the acting user userID.
func NewLocal(userID uint, svc Services) *Local {
	return &Local{userID: userID, svc: svc}
}

// UserID is the acting user.
func (l *Local) UserID() uint { return l.userID }

func (l *Local) ListDirect(ctx context.Context, archived bool) ([]models.DirectConversation, error) {
	return l.svc.Direct.List(ctx, l.userID, archived)
}

func (l *Local) ListGroups(ctx context.Context, archived bool) ([]models.Group, error) {
	circles, err := l.svc.Circles.List(ctx, l.userID, models.KindGroup, archived)
	if err != nil {
		return nil, err
	}
	out := make([]models.Group, len(circles))
	for i, c := range circles {
		out[i] = models.Group{Circle: c}
	}
	return out, nil
}

func (l *Local) ListCommunities(ctx context.Context, archived bool) ([]models.Community, error) {
	circles, err := l.svc.Circles.List(ctx, l.userID, models.KindCommunity, archived)
	if err != nil {
		return nil, err
	}
	out := make([]models.Community, len(circles))
	for i, c := range circles {
		out[i] = models.Community{Circle: c}
	}
	return out, nil
}

func (l *Local) ArchiveDirect(ctx context.Context, id uint, archive bool) error {
	return l.svc.Direct.Archive(ctx, l.userID, id, archive)
}

func (l *Local) ArchiveGroup(ctx context.Context, id uint, archive bool) error {
	return l.svc.Circles.Archive(ctx, l.userID, models.KindGroup, id, archive)
}

func (l *Local) ArchiveCommunity(ctx context.Context, id uint, archive bool) error {
	return l.svc.Circles.Archive(ctx, l.userID, models.KindCommunity, id, archive)
}

func (l *Local) DeleteDirect(ctx context.Context, id uint) error {
	return l.svc.Direct.Delete(ctx, l.userID, id)
}

func (l *Local) DeleteGroup(ctx context.Context, id uint) error {
	return l.svc.Circles.Delete(ctx, l.userID, models.KindGroup, id)
}

func (l *Local) DeleteCommunity(ctx context.Context, id uint) error {
	return l.svc.Circles.Delete(ctx, l.userID, models.KindCommunity, id)
}

func (l *Local) LeaveGroup(ctx context.Context, id uint) error {
	return l.svc.Circles.Leave(ctx, l.userID, models.KindGroup, id)
}

func (l *Local) LeaveCommunity(ctx context.Context, id uint) error {
	return l.svc.Circles.Leave(ctx, l.userID, models.KindCommunity, id)
}

func (l *Local) CreateDirect(ctx context.Context, peerID uint) (*models.DirectConversation, error) {
	return l.svc.Direct.Create(ctx, l.userID, peerID)
}

func (l *Local) CreateGroup(ctx context.Context, in service.CreateCircleInput) (*models.Group, error) {
	c, err := l.svc.Circles.Create(ctx, l.userID, models.KindGroup, in)
	if err != nil {
		return nil, err
	}
	return &models.Group{Circle: *c}, nil
}

func (l *Local) CreateCommunity(ctx context.Context, in service.CreateCircleInput) (*models.Community, error) {
	c, err := l.svc.Circles.Create(ctx, l.userID, models.KindCommunity, in)
	if err != nil {
		return nil, err
	}
	return &models.Community{Circle: *c}, nil
}

func (l *Local) AddGroupMember(ctx context.Context, id, userID uint) error {
	return l.svc.Circles.AddMember(ctx, l.userID, models.KindGroup, id, userID)
}

func (l *Local) AddCommunityMember(ctx context.Context, id, userID uint) error {
	return l.svc.Circles.AddMember(ctx, l.userID, models.KindCommunity, id, userID)
}

func (l *Local) RemoveGroupMember(ctx context.Context, id, userID uint) error {
	return l.svc.Circles.RemoveMember(ctx, l.userID, models.KindGroup, id, userID)
}

func (l *Local) RemoveCommunityMember(ctx context.Context, id, userID uint) error {
	return l.svc.Circles.RemoveMember(ctx, l.userID, models.KindCommunity, id, userID)
}

func (l *Local) CreateInvite(ctx context.Context, kind models.Kind, circleID uint, email *string) (*models.Invite, error) {
	return l.svc.Invites.Create(ctx, l.userID, kind, circleID, email)
}

func (l *Local) ListInvites(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error) {
	return l.svc.Invites.List(ctx, l.userID, kind, circleID)
}

func (l *Local) RevokeInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error {
	return l.svc.Invites.Revoke(ctx, l.userID, kind, circleID, inviteID)
}

func (l *Local) RemindInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error {
	return l.svc.Invites.Remind(ctx, l.userID, kind, circleID, inviteID)
}

func (l *Local) UpdateGroup(ctx context.Context, id uint, in service.CircleUpdate) error {
	return l.svc.Circles.Update(ctx, l.userID, models.KindGroup, id, in)
}

func (l *Local) UpdateCommunity(ctx context.Context, id uint, in service.CircleUpdate) error {
	return l.svc.Circles.Update(ctx, l.userID, models.KindCommunity, id, in)
}

func (l *Local) UploadAvatar(ctx context.Context, filename string, content []byte) (string, error) {
	return l.svc.Avatars.Upload(ctx, filename, content)
}

func (l *Local) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	return l.svc.Users.Search(ctx, l.userID, term)
}
