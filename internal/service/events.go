// Package service holds the backend business rules behind the collaborator
// operations: direct conversations, circles, memberships and invites.
package service

import (
	"context"

	"wayfarer/internal/models"
)

// InboxEvents is told whenever an inbox-visible row changes, so connected
// clients know to refetch. Implementations must not block.
type InboxEvents interface {
	InboxChanged(ctx context.Context, kind models.Kind, id uint, userIDs ...uint)
}

// ReminderQueue schedules delivery of an invite reminder.
type ReminderQueue interface {
	EnqueueInviteReminder(ctx context.Context, inviteID uint) error
}

type noopEvents struct{}

func (noopEvents) InboxChanged(context.Context, models.Kind, uint, ...uint) {}

func eventsOrNoop(e InboxEvents) InboxEvents {
	if e == nil {
		return noopEvents{}
	}
	return e
}
