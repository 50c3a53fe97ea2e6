// Package membership creates groups and communities, manages their members
// and drives the invite lifecycle on behalf of the acting user.
package membership

import (
	"context"
	"log/slog"
	"strings"

	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"
	"wayfarer/internal/service"
	"wayfarer/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Backend is the subset of collab.Backend the manager drives.
type Backend interface {
	CreateGroup(ctx context.Context, in service.CreateCircleInput) (*models.Group, error)
	CreateCommunity(ctx context.Context, in service.CreateCircleInput) (*models.Community, error)
	UpdateGroup(ctx context.Context, id uint, in service.CircleUpdate) error
	UpdateCommunity(ctx context.Context, id uint, in service.CircleUpdate) error
	UploadAvatar(ctx context.Context, filename string, content []byte) (string, error)

	AddGroupMember(ctx context.Context, id, userID uint) error
	AddCommunityMember(ctx context.Context, id, userID uint) error
	RemoveGroupMember(ctx context.Context, id, userID uint) error
	RemoveCommunityMember(ctx context.Context, id, userID uint) error

	CreateInvite(ctx context.Context, kind models.Kind, circleID uint, email *string) (*models.Invite, error)
	ListInvites(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error)
	RevokeInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error
	RemindInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error

	SearchUsers(ctx context.Context, term string) ([]models.User, error)
}

// AvatarFile is an image to upload before the circle is created.
type AvatarFile struct {
	Filename string
	Content  []byte
}

// GroupInput describes a new group. IsPublic nil means private.
type GroupInput struct {
	Name        string
	Description string
	MemberIDs   []uint
	Avatar      *AvatarFile
	IsPublic    *bool
}

// CommunityInput describes a new community. IsPublic nil means public.
// Communities grow by invite or public join, so there are no initial members.
type CommunityInput struct {
	Name        string
	Description string
	Avatar      *AvatarFile
	IsPublic    *bool
}

// Update is a partial edit of a group or community.
type Update struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Avatar      *AvatarFile
}

// SearchResult is a member search outcome. OfferInvite is set when nothing
// matched and the term is an email address, in which case Email holds the
// normalized address to invite.
type SearchResult struct {
	Users       []models.User
	OfferInvite bool
	Email       string
}

// Manager validates input locally and forwards to the backend.
type Manager struct {
	backend Backend
	origin  string
	logger  *slog.Logger
}

// NewManager builds a Manager. origin is the public site invite links point
// at. A nil logger uses middleware.Logger.
func NewManager(backend Backend, origin string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = middleware.Logger
	}
	return &Manager{backend: backend, origin: origin, logger: logger}
}

// CreateGroup creates a group with the caller as admin and MemberIDs as members.
func (m *Manager) CreateGroup(ctx context.Context, in GroupInput) (*models.Group, error) {
	span, ctx := observability.NewSpan(ctx, "membership.CreateGroup")
	defer span.End()

	if err := validateDetails(in.Name, in.Description); err != nil {
		return nil, err
	}
	avatarURL, err := m.uploadAvatar(ctx, in.Avatar)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	g, err := m.backend.CreateGroup(ctx, service.CreateCircleInput{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		AvatarURL:   avatarURL,
		IsPublic:    publicOrDefault(in.IsPublic, models.KindGroup),
		MemberIDs:   in.MemberIDs,
	})
	if err != nil {
		span.SetError(err)
		return nil, models.AsCollaboratorFailure("create group", err)
	}
	span.AddAttributes(attribute.Int64("circle.id", int64(g.ID)))
	return g, nil
}

// CreateCommunity creates a community with the caller as admin.
func (m *Manager) CreateCommunity(ctx context.Context, in CommunityInput) (*models.Community, error) {
	span, ctx := observability.NewSpan(ctx, "membership.CreateCommunity")
	defer span.End()

	if err := validateDetails(in.Name, in.Description); err != nil {
		return nil, err
	}
	avatarURL, err := m.uploadAvatar(ctx, in.Avatar)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	c, err := m.backend.CreateCommunity(ctx, service.CreateCircleInput{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		AvatarURL:   avatarURL,
		IsPublic:    publicOrDefault(in.IsPublic, models.KindCommunity),
	})
	if err != nil {
		span.SetError(err)
		return nil, models.AsCollaboratorFailure("create community", err)
	}
	span.AddAttributes(attribute.Int64("circle.id", int64(c.ID)))
	return c, nil
}

// Update edits a group or community. Only non-nil fields change.
func (m *Manager) Update(ctx context.Context, kind models.Kind, id uint, in Update) error {
	if err := requireCircle(kind); err != nil {
		return err
	}
	if in.Name != nil {
		if err := validation.ValidateCircleName(*in.Name); err != nil {
			return models.NewValidationError(err.Error())
		}
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if in.Description != nil {
		if err := validation.ValidateCircleDescription(*in.Description); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	upd := service.CircleUpdate{Name: in.Name, Description: in.Description, IsPublic: in.IsPublic}
	if in.Avatar != nil {
		url, err := m.uploadAvatar(ctx, in.Avatar)
		if err != nil {
			return err
		}
		upd.AvatarURL = &url
	}

	var err error
	if kind == models.KindGroup {
		err = m.backend.UpdateGroup(ctx, id, upd)
	} else {
		err = m.backend.UpdateCommunity(ctx, id, upd)
	}
	return models.AsCollaboratorFailure("update "+kind.String(), err)
}

// AddMember adds userID to the circle as a member.
func (m *Manager) AddMember(ctx context.Context, kind models.Kind, circleID, userID uint) error {
	if err := requireCircle(kind); err != nil {
		return err
	}
	if userID == 0 {
		return models.NewValidationError("user is required")
	}
	var err error
	if kind == models.KindGroup {
		err = m.backend.AddGroupMember(ctx, circleID, userID)
	} else {
		err = m.backend.AddCommunityMember(ctx, circleID, userID)
	}
	return models.AsCollaboratorFailure("add member", err)
}

// RemoveMember removes userID. Removing an admin fails with INVALID_STATE.
func (m *Manager) RemoveMember(ctx context.Context, kind models.Kind, circleID, userID uint) error {
	if err := requireCircle(kind); err != nil {
		return err
	}
	if userID == 0 {
		return models.NewValidationError("user is required")
	}
	var err error
	if kind == models.KindGroup {
		err = m.backend.RemoveGroupMember(ctx, circleID, userID)
	} else {
		err = m.backend.RemoveCommunityMember(ctx, circleID, userID)
	}
	return models.AsCollaboratorFailure("remove member", err)
}

// CreateInvite issues a fresh pending invite. email is optional; a blank
// address is treated as a link-only invite. Earlier pending invites for the
// same address are left untouched.
func (m *Manager) CreateInvite(ctx context.Context, kind models.Kind, circleID uint, email *string) (*models.Invite, error) {
	if err := requireCircle(kind); err != nil {
		return nil, err
	}
	target, err := normalizeInviteEmail(email)
	if err != nil {
		return nil, err
	}
	inv, err := m.backend.CreateInvite(ctx, kind, circleID, target)
	if err != nil {
		return nil, models.AsCollaboratorFailure("create invite", err)
	}
	return inv, nil
}

// RemindInvite re-sends a pending invite. Non-pending invites fail with INVALID_STATE.
func (m *Manager) RemindInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error {
	if err := requireCircle(kind); err != nil {
		return err
	}
	return models.AsCollaboratorFailure("remind invite", m.backend.RemindInvite(ctx, kind, circleID, inviteID))
}

// RevokeInvite moves a pending invite to revoked. Terminal invites fail with INVALID_STATE.
func (m *Manager) RevokeInvite(ctx context.Context, kind models.Kind, circleID, inviteID uint) error {
	if err := requireCircle(kind); err != nil {
		return err
	}
	return models.AsCollaboratorFailure("revoke invite", m.backend.RevokeInvite(ctx, kind, circleID, inviteID))
}

// ListInvites returns every invite of the circle, newest first.
func (m *Manager) ListInvites(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error) {
	if err := requireCircle(kind); err != nil {
		return nil, err
	}
	invites, err := m.backend.ListInvites(ctx, kind, circleID)
	if err != nil {
		return nil, models.AsCollaboratorFailure("list invites", err)
	}
	return invites, nil
}

// InviteLink builds the shareable URL for code against the manager's origin.
func (m *Manager) InviteLink(code string) string {
	return InviteLink(m.origin, code)
}

// InviteLink builds origin + "/signup?invite=" + code.
func InviteLink(origin, code string) string {
	return models.InviteLink(origin, code)
}

// SearchMembers looks users up by handle, name or email. A miss on an
// email-shaped term offers an invite instead.
func (m *Manager) SearchMembers(ctx context.Context, term string) (SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchResult{Users: []models.User{}}, nil
	}
	users, err := m.backend.SearchUsers(ctx, term)
	if err != nil {
		return SearchResult{}, models.AsCollaboratorFailure("search users", err)
	}
	res := SearchResult{Users: users}
	if res.Users == nil {
		res.Users = []models.User{}
	}
	if len(users) == 0 && validation.LooksLikeEmail(term) {
		res.OfferInvite = true
		res.Email = validation.NormalizeEmail(term)
	}
	return res, nil
}

func (m *Manager) uploadAvatar(ctx context.Context, avatar *AvatarFile) (string, error) {
	if avatar == nil || len(avatar.Content) == 0 {
		return "", nil
	}
	url, err := m.backend.UploadAvatar(ctx, avatar.Filename, avatar.Content)
	if err != nil {
		m.logger.WarnContext(ctx, "avatar upload failed",
			slog.String("filename", avatar.Filename),
			slog.String("error", err.Error()),
		)
		return "", models.AsCollaboratorFailure("upload avatar", err)
	}
	return url, nil
}

func validateDetails(name, description string) error {
	if err := validation.ValidateCircleName(name); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCircleDescription(description); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func requireCircle(kind models.Kind) error {
	if !kind.IsCircle() {
		return models.NewValidationError("kind must be group or community")
	}
	return nil
}

func normalizeInviteEmail(email *string) (*string, error) {
	if email == nil {
		return nil, nil
	}
	addr := validation.NormalizeEmail(*email)
	if addr == "" {
		return nil, nil
	}
	if err := validation.ValidateEmail(addr); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &addr, nil
}

func publicOrDefault(p *bool, kind models.Kind) *bool {
	if p != nil {
		v := *p
		return &v
	}
	v := models.DefaultIsPublic(kind)
	return &v
}
