package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"wayfarer/internal/inbox"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// ErrBusy is returned while a confirmed action is still executing.
var ErrBusy = errors.New("lifecycle: an action is already in progress")

// Backend is the subset of collab.Backend the machine mutates through.
type Backend interface {
	ArchiveDirect(ctx context.Context, id uint, archive bool) error
	ArchiveGroup(ctx context.Context, id uint, archive bool) error
	ArchiveCommunity(ctx context.Context, id uint, archive bool) error
	DeleteDirect(ctx context.Context, id uint) error
	LeaveGroup(ctx context.Context, id uint) error
	LeaveCommunity(ctx context.Context, id uint) error
}

// Refresher refetches the list after a successful action.
type Refresher interface {
	Reload(ctx context.Context) ([]inbox.Item, bool)
}

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

// Notice is the short message shown after Confirm.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Pending is an action awaiting confirmation.
type Pending struct {
	Item   inbox.Item
	Action Action
	Prompt string
}

// Machine holds at most one pending action for one viewer.
type Machine struct {
	backend   Backend
	refresher Refresher
	selection *Selection
	logger    *slog.Logger

	mu      sync.Mutex
	pending *Pending
	busy    atomic.Bool
}

// NewMachine builds a Machine. refresher and selection may be nil.
func NewMachine(backend Backend, refresher Refresher, selection *Selection, logger *slog.Logger) *Machine {
	if selection == nil {
		selection = &Selection{}
	}
	if logger == nil {
		logger = middleware.Logger
	}
	return &Machine{backend: backend, refresher: refresher, selection: selection, logger: logger}
}

// Selection returns the selection the machine clears.
func (m *Machine) Selection() *Selection { return m.selection }

// Request stages action on item and returns the confirmation prompt. An
// illegal kind/action pair is a validation error; archiving an archived item
// or unarchiving an active one is an invalid-state error. A new request replaces
// any earlier one.
func (m *Machine) Request(item inbox.Item, action Action) (*Pending, error) {
	if !Allowed(item.Kind, action) {
		return nil, models.NewValidationError(fmt.Sprintf("cannot %s a %s conversation", action, item.Kind))
	}
	switch {
	case action == ActionArchive && item.IsArchived:
		return nil, models.NewInvalidStateError(fmt.Sprintf("%s is already archived", item.DisplayName))
	case action == ActionUnarchive && !item.IsArchived:
		return nil, models.NewInvalidStateError(fmt.Sprintf("%s is not archived", item.DisplayName))
	}
	if m.busy.Load() {
		return nil, ErrBusy
	}
	p := &Pending{Item: item, Action: action, Prompt: prompt(item, action)}

	m.mu.Lock()
	m.pending = p
	m.mu.Unlock()

	cp := *p
	return &cp, nil
}

// Pending returns the staged action, if any.
func (m *Machine) Pending() (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Pending{}, false
	}
	return *m.pending, true
}

// Cancel drops the staged action.
func (m *Machine) Cancel() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// Confirm executes the staged action. On success the list is refreshed and
// the selection cleared if it pointed at the item. On failure nothing local
// changes: no refresh, selection kept, and the staged action is dropped.
// The returned error classifies the failure; the Notice is always set.
func (m *Machine) Confirm(ctx context.Context) (Notice, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return Notice{}, ErrBusy
	}
	defer m.busy.Store(false)

	m.mu.Lock()
	p := m.pending
	m.pending = nil
	m.mu.Unlock()
	if p == nil {
		return Notice{Kind: NoticeFailure, Text: "Nothing to confirm."},
			models.NewInvalidStateError("no action awaiting confirmation")
	}

	span, ctx := observability.NewSpan(ctx, "lifecycle.Confirm")
	defer span.End()
	span.AddAttributes(
		attribute.String("item.kind", p.Item.Kind.String()),
		attribute.Int64("item.id", int64(p.Item.ID)),
		attribute.String("lifecycle.action", string(p.Action)),
	)

	if err := m.execute(ctx, p.Item, p.Action); err != nil {
		span.SetError(err)
		observability.LifecycleActions.WithLabelValues(p.Item.Kind.String(), string(p.Action), "failed").Inc()
		m.logger.ErrorContext(ctx, "lifecycle action failed",
			slog.String("kind", p.Item.Kind.String()),
			slog.Uint64("id", uint64(p.Item.ID)),
			slog.String("action", string(p.Action)),
			slog.String("error", err.Error()),
		)
		return Notice{
			Kind: NoticeFailure,
			Text: fmt.Sprintf("Could not %s %s. Please try again.", p.Action.verb(), p.Item.DisplayName),
		}, models.AsCollaboratorFailure(string(p.Action), err)
	}

	observability.LifecycleActions.WithLabelValues(p.Item.Kind.String(), string(p.Action), "ok").Inc()
	if m.refresher != nil {
		m.refresher.Reload(ctx)
	}
	m.selection.ClearIf(p.Item.Key())

	return Notice{
		Kind: NoticeSuccess,
		Text: fmt.Sprintf("%s %s.", p.Item.DisplayName, p.Action.pastTense()),
	}, nil
}

func (m *Machine) execute(ctx context.Context, item inbox.Item, action Action) error {
	switch action {
	case ActionArchive, ActionUnarchive:
		archive := action == ActionArchive
		switch item.Kind {
		case models.KindDirect:
			return m.backend.ArchiveDirect(ctx, item.ID, archive)
		case models.KindGroup:
			return m.backend.ArchiveGroup(ctx, item.ID, archive)
		case models.KindCommunity:
			return m.backend.ArchiveCommunity(ctx, item.ID, archive)
		}
	case ActionDelete:
		return m.backend.DeleteDirect(ctx, item.ID)
	case ActionLeave:
		if item.Kind == models.KindGroup {
			return m.backend.LeaveGroup(ctx, item.ID)
		}
		return m.backend.LeaveCommunity(ctx, item.ID)
	}
	return models.NewValidationError("unsupported action")
}

func prompt(item inbox.Item, action Action) string {
	switch action {
	case ActionDelete:
		return fmt.Sprintf("Delete your conversation with %s? It will be removed from your inbox.", item.DisplayName)
	case ActionLeave:
		return fmt.Sprintf("Leave %s?", item.DisplayName)
	case ActionUnarchive:
		return fmt.Sprintf("Move %s back to your inbox?", item.DisplayName)
	default:
		return fmt.Sprintf("Archive %s?", item.DisplayName)
	}
}
