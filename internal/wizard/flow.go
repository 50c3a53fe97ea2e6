// Package wizard drives the three-step creation flow for direct
// conversations, groups and communities.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"wayfarer/internal/membership"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"
	"wayfarer/internal/validation"
)

// ErrBusy is returned while a creation call is still in flight.
var ErrBusy = errors.New("wizard: creation already in progress")

// Step is a wizard page.
type Step string

const (
	StepSelectType Step = "select_type"
	StepDetails    Step = "details"
	StepMembers    Step = "members"
	StepDone       Step = "done"
)

// Creator creates circles and their invites; *membership.Manager satisfies it.
type Creator interface {
	CreateGroup(ctx context.Context, in membership.GroupInput) (*models.Group, error)
	CreateCommunity(ctx context.Context, in membership.CommunityInput) (*models.Community, error)
	CreateInvite(ctx context.Context, kind models.Kind, circleID uint, email *string) (*models.Invite, error)
}

// DirectStarter opens a direct conversation; collab.Backend satisfies it.
type DirectStarter interface {
	CreateDirect(ctx context.Context, peerID uint) (*models.DirectConversation, error)
}

// Result is handed back to the caller, which decides which tab to show and
// what to select.
type Result struct {
	ID            uint        `json:"id"`
	Kind          models.Kind `json:"kind"`
	FailedInvites []string    `json:"failed_invites,omitempty"`
}

// Flow is a single pass through the wizard.
type Flow struct {
	creator Creator
	direct  DirectStarter
	logger  *slog.Logger

	mu          sync.Mutex
	step        Step
	kind        models.Kind
	name        string
	description string
	isPublic    bool
	avatar      *membership.AvatarFile
	selected    []models.User
	invites     []string
	result      *Result

	busy atomic.Bool
}

// NewFlow starts a flow at StepSelectType. A nil logger uses middleware.Logger.
func NewFlow(creator Creator, direct DirectStarter, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = middleware.Logger
	}
	return &Flow{creator: creator, direct: direct, logger: logger, step: StepSelectType}
}

// Step returns the current page.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Kind returns the selected kind, or "" before SelectType.
func (f *Flow) Kind() models.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kind
}

// SelectType picks what to create and resets the kind's privacy default.
func (f *Flow) SelectType(kind models.Kind) error {
	if kind != models.KindDirect && !kind.IsCircle() {
		return models.NewValidationError("unknown conversation type")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectType {
		return models.NewInvalidStateError("type can only be chosen on the first step")
	}
	f.kind = kind
	f.isPublic = models.DefaultIsPublic(kind)
	return nil
}

// SetName sets the circle name.
func (f *Flow) SetName(name string) {
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
}

// SetDescription sets the circle description.
func (f *Flow) SetDescription(description string) {
	f.mu.Lock()
	f.description = description
	f.mu.Unlock()
}

// SetPublic overrides the kind's privacy default.
func (f *Flow) SetPublic(public bool) {
	f.mu.Lock()
	f.isPublic = public
	f.mu.Unlock()
}

// IsPublic reports the current privacy setting.
func (f *Flow) IsPublic() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isPublic
}

// SetAvatar attaches an avatar to upload on Submit; nil clears it.
func (f *Flow) SetAvatar(avatar *membership.AvatarFile) {
	f.mu.Lock()
	f.avatar = avatar
	f.mu.Unlock()
}

// CanProceedFromDetails reports whether the name is non-empty after trimming.
func (f *Flow) CanProceedFromDetails() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canProceedFromDetails()
}

func (f *Flow) canProceedFromDetails() bool {
	return strings.TrimSpace(f.name) != ""
}

// CanProceedFromMembers reports whether a circle may be created: public
// circles may start empty, private ones need a member or an invite.
func (f *Flow) CanProceedFromMembers() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canProceedFromMembers()
}

func (f *Flow) canProceedFromMembers() bool {
	if !f.kind.IsCircle() {
		return false
	}
	if f.isPublic || len(f.invites) > 0 {
		return true
	}
	for _, u := range f.selected {
		// communities reach selected people by email only
		if f.kind == models.KindGroup || u.Email != "" {
			return true
		}
	}
	return false
}

// Next advances one page. Direct conversations skip the details page.
func (f *Flow) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepSelectType:
		switch {
		case f.kind == models.KindDirect:
			f.step = StepMembers
		case f.kind.IsCircle():
			f.step = StepDetails
		default:
			return models.NewValidationError("choose what to create first")
		}
	case StepDetails:
		if !f.canProceedFromDetails() {
			return models.NewValidationError("name is required")
		}
		f.step = StepMembers
	default:
		return models.NewInvalidStateError("no further step")
	}
	return nil
}

// Back returns to the previous page, keeping entered values.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepDetails:
		f.step = StepSelectType
	case StepMembers:
		if f.kind == models.KindDirect {
			f.step = StepSelectType
		} else {
			f.step = StepDetails
		}
	default:
		return models.NewInvalidStateError("no previous step")
	}
	return nil
}

// ToggleMember adds user to or removes user from the initial members and
// reports whether user is now selected.
func (f *Flow) ToggleMember(user models.User) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.selected {
		if u.ID == user.ID {
			f.selected = append(f.selected[:i], f.selected[i+1:]...)
			return false
		}
	}
	f.selected = append(f.selected, user)
	return true
}

// Selected returns the chosen initial members in pick order.
func (f *Flow) Selected() []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, len(f.selected))
	copy(out, f.selected)
	return out
}

// AddExternalInvite queues an email invite to send after creation.
// Addresses are normalized; repeats are ignored.
func (f *Flow) AddExternalInvite(email string) error {
	addr := validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(addr); err != nil {
		return models.NewValidationError(err.Error())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kind == models.KindDirect {
		return models.NewValidationError("direct conversations have no invites")
	}
	for _, existing := range f.invites {
		if existing == addr {
			return nil
		}
	}
	f.invites = append(f.invites, addr)
	return nil
}

// RemoveExternalInvite drops a queued invite.
func (f *Flow) RemoveExternalInvite(email string) {
	addr := validation.NormalizeEmail(email)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.invites {
		if existing == addr {
			f.invites = append(f.invites[:i], f.invites[i+1:]...)
			return
		}
	}
}

// Invites returns the queued invite addresses.
func (f *Flow) Invites() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.invites))
	copy(out, f.invites)
	return out
}

// Result returns the completed result, if any.
func (f *Flow) Result() (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return Result{}, false
	}
	return *f.result, true
}

// PickDirect creates (or reopens) the direct conversation with user and
// completes the flow. Only the first pick counts: once the flow is done,
// later picks return the original result without calling the backend.
func (f *Flow) PickDirect(ctx context.Context, user models.User) (Result, error) {
	f.mu.Lock()
	if f.result != nil {
		res := *f.result
		f.mu.Unlock()
		return res, nil
	}
	if f.kind != models.KindDirect || f.step != StepMembers {
		f.mu.Unlock()
		return Result{}, models.NewInvalidStateError("pick a person from the members step of a direct conversation")
	}
	f.mu.Unlock()

	if !f.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer f.busy.Store(false)

	dc, err := f.direct.CreateDirect(ctx, user.ID)
	if err != nil {
		return Result{}, models.AsCollaboratorFailure("create direct conversation", err)
	}
	return f.complete(Result{ID: dc.ID, Kind: models.KindDirect}), nil
}

// Submit creates the group or community, then sends each queued invite.
// Invite failures are collected in FailedInvites and never undo creation.
// Community picks without an email cannot be invited and are listed there too.
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.result != nil {
		res := *f.result
		f.mu.Unlock()
		return res, nil
	}
	if !f.kind.IsCircle() {
		f.mu.Unlock()
		return Result{}, models.NewInvalidStateError("only groups and communities are submitted")
	}
	if !f.canProceedFromDetails() {
		f.mu.Unlock()
		return Result{}, models.NewValidationError("name is required")
	}
	if !f.canProceedFromMembers() {
		f.mu.Unlock()
		return Result{}, models.NewValidationError("a private " + f.kind.String() + " needs at least one member or invite")
	}
	kind := f.kind
	isPublic := f.isPublic
	groupIn := membership.GroupInput{
		Name:        f.name,
		Description: f.description,
		Avatar:      f.avatar,
		IsPublic:    &isPublic,
	}
	for _, u := range f.selected {
		groupIn.MemberIDs = append(groupIn.MemberIDs, u.ID)
	}
	invites := append([]string(nil), f.invites...)
	f.mu.Unlock()

	if !f.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer f.busy.Store(false)

	span, ctx := observability.NewSpan(ctx, "wizard.Submit")
	defer span.End()

	var id uint
	var unreachable []string
	switch kind {
	case models.KindGroup:
		g, err := f.creator.CreateGroup(ctx, groupIn)
		if err != nil {
			span.SetError(err)
			return Result{}, err
		}
		id = g.ID
	case models.KindCommunity:
		c, err := f.creator.CreateCommunity(ctx, membership.CommunityInput{
			Name:        groupIn.Name,
			Description: groupIn.Description,
			Avatar:      groupIn.Avatar,
			IsPublic:    groupIn.IsPublic,
		})
		if err != nil {
			span.SetError(err)
			return Result{}, err
		}
		id = c.ID
		// Communities take no initial members; selected people are invited by their account email.
		for _, u := range f.Selected() {
			if u.Email == "" {
				unreachable = append(unreachable, userLabel(u))
				continue
			}
			invites = appendUnique(invites, validation.NormalizeEmail(u.Email))
		}
	}

	res := Result{ID: id, Kind: kind, FailedInvites: unreachable}
	for _, addr := range invites {
		email := addr
		if _, err := f.creator.CreateInvite(ctx, kind, id, &email); err != nil {
			observability.InviteTransitions.WithLabelValues(kind.String(), "create_failed").Inc()
			f.logger.WarnContext(ctx, "invite after creation failed",
				slog.String("kind", kind.String()),
				slog.Uint64("circle_id", uint64(id)),
				slog.String("email", addr),
				slog.String("error", err.Error()),
			)
			res.FailedInvites = append(res.FailedInvites, addr)
		}
	}
	return f.complete(res), nil
}

// Reset returns the flow to its first step with nothing entered.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepSelectType
	f.kind = ""
	f.name = ""
	f.description = ""
	f.isPublic = false
	f.avatar = nil
	f.selected = nil
	f.invites = nil
	f.result = nil
}

func (f *Flow) complete(res Result) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result != nil {
		return *f.result
	}
	f.result = &res
	f.step = StepDone
	return res
}

func userLabel(u models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("user %d", u.ID)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
