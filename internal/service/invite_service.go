package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"wayfarer/internal/featureflags"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"
	"wayfarer/internal/repository"
	"wayfarer/internal/validation"

	"github.com/google/uuid"
)

const inviteCodeAttempts = 3

// InviteService drives the invite state machine: create, remind, revoke.
type InviteService struct {
	invites repository.InviteRepository
	members repository.MembershipRepository
	circles repository.CircleRepository
	queue   ReminderQueue
	flags   *featureflags.Manager
	origin  string
	now     func() time.Time
}

// NewInviteService returns a new InviteService. queue may be nil, in which
// case reminders are only recorded.
func NewInviteService(
	invites repository.InviteRepository,
	members repository.MembershipRepository,
	circles repository.CircleRepository,
	queue ReminderQueue,
	flags *featureflags.Manager,
	origin string,
) *InviteService {
	return &InviteService{
		invites: invites,
		members: members,
		circles: circles,
		queue:   queue,
		flags:   flags,
		origin:  origin,
		now:     time.Now,
	}
}

// NewInviteCode returns a 22-character url-safe code from a random uuid.
func NewInviteCode() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// Link builds the shareable URL for code.
func (s *InviteService) Link(code string) string {
	return models.InviteLink(s.origin, code)
}

// Create mints a fresh pending invite. Several pending invites for the same
// email may coexist; each gets its own code.
func (s *InviteService) Create(ctx context.Context, actorID uint, kind models.Kind, circleID uint, email *string) (*models.Invite, error) {
	if !kind.IsCircle() {
		return nil, models.NewValidationError("Invites belong to groups or communities")
	}
	if email != nil {
		normalized := validation.NormalizeEmail(*email)
		if normalized == "" {
			email = nil
		} else {
			if err := validation.ValidateEmail(normalized); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			email = &normalized
		}
	}
	if err := s.requireMember(ctx, actorID, kind, circleID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		invite := &models.Invite{
			Kind:            kind,
			CircleID:        circleID,
			InviteCode:      NewInviteCode(),
			Email:           email,
			Status:          models.InviteStatusPending,
			InvitedByUserID: actorID,
		}
		err := s.invites.Create(ctx, invite)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		observability.InviteTransitions.WithLabelValues(kind.String(), "created").Inc()
		return invite, nil
	}
	return nil, models.NewInternalError(errors.New("could not allocate a unique invite code"))
}

// List returns every invite of a circle, newest first.
func (s *InviteService) List(ctx context.Context, actorID uint, kind models.Kind, circleID uint) ([]models.Invite, error) {
	if err := s.requireMember(ctx, actorID, kind, circleID); err != nil {
		return nil, err
	}
	return s.invites.ListForCircle(ctx, kind, circleID)
}

// Revoke moves a pending invite to revoked. Revoked and accepted invites are
// terminal and yield INVALID_STATE.
func (s *InviteService) Revoke(ctx context.Context, actorID uint, kind models.Kind, circleID, inviteID uint) error {
	invite, err := s.loadInvite(ctx, actorID, kind, circleID, inviteID)
	if err != nil {
		return err
	}
	if invite.Status.Terminal() {
		return invalidInviteState(invite.Status, "revoke")
	}
	ok, err := s.invites.TransitionFromPending(ctx, inviteID, models.InviteStatusRevoked)
	if err != nil {
		return err
	}
	if !ok {
		return s.lostRace(ctx, inviteID, "revoke")
	}
	observability.InviteTransitions.WithLabelValues(kind.String(), "revoked").Inc()
	return nil
}

// Remind records a reminder for a pending invite and, when the
// invite_email_reminders flag is on and the invite targets an email,
// schedules delivery. Status is unchanged.
func (s *InviteService) Remind(ctx context.Context, actorID uint, kind models.Kind, circleID, inviteID uint) error {
	invite, err := s.loadInvite(ctx, actorID, kind, circleID, inviteID)
	if err != nil {
		return err
	}
	if invite.Status.Terminal() {
		return invalidInviteState(invite.Status, "remind")
	}
	ok, err := s.invites.RecordReminder(ctx, inviteID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return s.lostRace(ctx, inviteID, "remind")
	}
	observability.InviteTransitions.WithLabelValues(kind.String(), "reminded").Inc()

	if invite.Email == nil || s.queue == nil || !s.flags.Enabled(featureflags.InviteEmailReminders, actorID) {
		return nil
	}
	if err := s.queue.EnqueueInviteReminder(ctx, inviteID); err != nil {
		// The reminder is recorded; delivery can be retried with another remind.
		observability.InviteReminderJobs.WithLabelValues("enqueue_failed").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to enqueue invite reminder",
			slog.Uint64("invite_id", uint64(inviteID)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *InviteService) loadInvite(ctx context.Context, actorID uint, kind models.Kind, circleID, inviteID uint) (*models.Invite, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.Kind != kind || invite.CircleID != circleID {
		return nil, models.NewNotFoundError("Invite", inviteID)
	}
	if err := s.requireMember(ctx, actorID, kind, circleID); err != nil {
		return nil, err
	}
	return invite, nil
}

func (s *InviteService) lostRace(ctx context.Context, inviteID uint, action string) error {
	current, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	return invalidInviteState(current.Status, action)
}

func (s *InviteService) requireMember(ctx context.Context, userID uint, kind models.Kind, circleID uint) error {
	m, err := s.members.Get(ctx, kind, circleID, userID)
	if err != nil {
		return err
	}
	if m != nil {
		return nil
	}
	if _, err := s.circles.GetByID(ctx, kind, circleID); err != nil {
		return err
	}
	return models.NewForbiddenError("Not a member")
}

func invalidInviteState(status models.InviteStatus, action string) error {
	return models.NewInvalidStateError("Cannot " + action + " an invite that is " + string(status))
}
