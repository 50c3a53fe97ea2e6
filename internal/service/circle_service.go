package service

import (
	"context"
	"log/slog"
	"strings"

	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"
	"wayfarer/internal/repository"
	"wayfarer/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// CreateCircleInput carries the fields for creating a group or community.
// IsPublic nil means the kind's default.
type CreateCircleInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
	IsPublic    *bool  `json:"is_public"`
	MemberIDs   []uint `json:"member_ids"`
}

// CircleUpdate is a partial update; nil fields are left alone.
type CircleUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	AvatarURL   *string `json:"avatar_url"`
	IsPublic    *bool   `json:"is_public"`
}

// CircleService manages groups and communities and their memberships.
type CircleService struct {
	circles repository.CircleRepository
	members repository.MembershipRepository
	users   repository.UserRepository
	events  InboxEvents
}

// NewCircleService returns a new CircleService. events may be nil.
func NewCircleService(circles repository.CircleRepository, members repository.MembershipRepository, users repository.UserRepository, events InboxEvents) *CircleService {
	return &CircleService{circles: circles, members: members, users: users, events: eventsOrNoop(events)}
}

// Create inserts the circle with the creator as admin and MemberIDs as members.
func (s *CircleService) Create(ctx context.Context, creatorID uint, kind models.Kind, in CreateCircleInput) (*models.Circle, error) {
	span, ctx := observability.NewSpan(ctx, "circle.create")
	defer span.End()
	span.AddAttributes(attribute.String("circle.kind", kind.String()))

	if !kind.IsCircle() {
		return nil, models.NewValidationError("kind must be group or community")
	}
	if err := validation.ValidateCircleName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCircleDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if kind == models.KindCommunity && len(in.MemberIDs) > 0 {
		return nil, models.NewValidationError("Communities grow by invite; initial members are not accepted")
	}
	if err := s.requireUsers(ctx, in.MemberIDs); err != nil {
		return nil, err
	}

	isPublic := models.DefaultIsPublic(kind)
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	circle := &models.Circle{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		AvatarURL:       in.AvatarURL,
		IsPublic:        isPublic,
		CreatedByUserID: creatorID,
	}
	if err := s.circles.CreateWithMembers(ctx, kind, circle, in.MemberIDs); err != nil {
		span.SetError(err)
		observability.CircleCreations.WithLabelValues(kind.String(), "failed").Inc()
		return nil, err
	}
	observability.CircleCreations.WithLabelValues(kind.String(), "ok").Inc()

	s.events.InboxChanged(ctx, kind, circle.ID, append([]uint{creatorID}, in.MemberIDs...)...)
	middleware.Logger.InfoContext(ctx, "circle created",
		slog.String("kind", kind.String()),
		slog.Uint64("circle_id", uint64(circle.ID)),
		slog.Int("members", circle.MemberCount),
	)
	return circle, nil
}

// List returns the viewer's circles of one kind for one archive state.
func (s *CircleService) List(ctx context.Context, userID uint, kind models.Kind, archived bool) ([]models.Circle, error) {
	return s.circles.ListForUser(ctx, kind, userID, archived)
}

// Get returns a circle visible to userID: public, or one they belong to.
func (s *CircleService) Get(ctx context.Context, userID uint, kind models.Kind, id uint) (*models.Circle, error) {
	circle, err := s.circles.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if circle.IsPublic {
		return circle, nil
	}
	m, err := s.members.Get(ctx, kind, id, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, models.NewNotFoundError(kindName(kind), id)
	}
	return circle, nil
}

// Archive sets the caller's own archive flag; other members are unaffected.
func (s *CircleService) Archive(ctx context.Context, userID uint, kind models.Kind, id uint, archive bool) error {
	if err := s.members.SetArchived(ctx, kind, id, userID, archive); err != nil {
		if models.IsNotFound(err) {
			return models.NewNotFoundError(kindName(kind), id)
		}
		return err
	}
	s.events.InboxChanged(ctx, kind, id, userID)
	return nil
}

// Leave removes the caller's membership. If the caller was the last admin the
// longest-standing member is promoted; if nobody remains the circle is deleted.
// Remaining members are notified since their member count changed.
func (s *CircleService) Leave(ctx context.Context, userID uint, kind models.Kind, id uint) error {
	res, err := s.circles.Leave(ctx, kind, id, userID)
	if err != nil {
		return err
	}
	if res.PromotedID != 0 {
		middleware.Logger.InfoContext(ctx, "admin promoted after leave",
			slog.String("kind", kind.String()),
			slog.Uint64("circle_id", uint64(id)),
			slog.Uint64("user_id", uint64(res.PromotedID)),
		)
	}

	s.events.InboxChanged(ctx, kind, id, append([]uint{userID}, res.Remaining...)...)
	return nil
}

// Delete removes the circle entirely. Admin only.
func (s *CircleService) Delete(ctx context.Context, userID uint, kind models.Kind, id uint) error {
	if err := s.requireAdmin(ctx, userID, kind, id); err != nil {
		return err
	}
	members, err := s.members.List(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.circles.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.events.InboxChanged(ctx, kind, id, memberIDs(members)...)
	return nil
}

// Update applies a partial update. Admin only.
func (s *CircleService) Update(ctx context.Context, userID uint, kind models.Kind, id uint, in CircleUpdate) error {
	if err := s.requireAdmin(ctx, userID, kind, id); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if err := validation.ValidateCircleName(*in.Name); err != nil {
			return models.NewValidationError(err.Error())
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		if err := validation.ValidateCircleDescription(*in.Description); err != nil {
			return models.NewValidationError(err.Error())
		}
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	if in.IsPublic != nil {
		updates["is_public"] = *in.IsPublic
	}
	if len(updates) == 0 {
		return models.NewValidationError("No fields to update")
	}

	if err := s.circles.Update(ctx, kind, id, updates); err != nil {
		return err
	}
	members, err := s.members.List(ctx, kind, id)
	if err == nil {
		s.events.InboxChanged(ctx, kind, id, memberIDs(members)...)
	}
	return nil
}

// Members lists a circle's memberships for one of its members.
func (s *CircleService) Members(ctx context.Context, userID uint, kind models.Kind, id uint) ([]models.Membership, error) {
	if err := s.requireMember(ctx, userID, kind, id); err != nil {
		return nil, err
	}
	return s.members.List(ctx, kind, id)
}

// AddMember adds userID as a member. Admin only; adding an existing member is a no-op.
func (s *CircleService) AddMember(ctx context.Context, actorID uint, kind models.Kind, id, userID uint) error {
	if err := s.requireAdmin(ctx, actorID, kind, id); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	added, err := s.members.Add(ctx, &models.Membership{Kind: kind, CircleID: id, UserID: userID, Role: models.MembershipRoleMember})
	if err != nil {
		return err
	}
	if added {
		s.events.InboxChanged(ctx, kind, id, userID)
	}
	return nil
}

// RemoveMember removes a plain member. Admins cannot be removed this way;
// they must be demoted first, which also protects the sole admin.
func (s *CircleService) RemoveMember(ctx context.Context, actorID uint, kind models.Kind, id, userID uint) error {
	if err := s.requireAdmin(ctx, actorID, kind, id); err != nil {
		return err
	}
	target, err := s.members.Get(ctx, kind, id, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return models.NewNotFoundError("Membership", userID)
	}
	if target.Role == models.MembershipRoleAdmin {
		admins, err := s.members.CountAdmins(ctx, kind, id)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return models.NewInvalidStateError("Cannot remove the sole admin")
		}
		return models.NewInvalidStateError("Cannot remove an admin; demote them first")
	}
	if _, err := s.members.Remove(ctx, kind, id, userID); err != nil {
		return err
	}
	s.events.InboxChanged(ctx, kind, id, userID)
	return nil
}

func (s *CircleService) requireMember(ctx context.Context, userID uint, kind models.Kind, id uint) error {
	m, err := s.members.Get(ctx, kind, id, userID)
	if err != nil {
		return err
	}
	if m == nil {
		if _, err := s.circles.GetByID(ctx, kind, id); err != nil {
			return err
		}
		return models.NewForbiddenError("Not a member")
	}
	return nil
}

func (s *CircleService) requireAdmin(ctx context.Context, userID uint, kind models.Kind, id uint) error {
	m, err := s.members.Get(ctx, kind, id, userID)
	if err != nil {
		return err
	}
	if m == nil {
		if _, err := s.circles.GetByID(ctx, kind, id); err != nil {
			return err
		}
		return models.NewForbiddenError("Not a member")
	}
	if m.Role != models.MembershipRoleAdmin {
		return models.NewForbiddenError("Admin role required")
	}
	return nil
}

func (s *CircleService) requireUsers(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	found, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(unique) {
		return models.NewValidationError("One or more members do not exist")
	}
	return nil
}

func memberIDs(ms []models.Membership) []uint {
	out := make([]uint, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.UserID)
	}
	return out
}

func kindName(kind models.Kind) string {
	if kind == models.KindCommunity {
		return "Community"
	}
	return "Group"
}
