package service

import (
	"context"
	"sync"
	"testing"

	"wayfarer/internal/featureflags"
	"wayfarer/internal/models"
	"wayfarer/internal/repository"
	"wayfarer/internal/testutil"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type recordedEvent struct {
	Kind    models.Kind
	ID      uint
	UserIDs []uint
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) InboxChanged(_ context.Context, kind models.Kind, id uint, userIDs ...uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Kind: kind, ID: id, UserIDs: userIDs})
}

func (r *eventRecorder) last() recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return recordedEvent{}
	}
	return r.events[len(r.events)-1]
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueInviteReminder(ctx context.Context, inviteID uint) error {
	args := m.Called(ctx, inviteID)
	return args.Error(0)
}

type fixture struct {
	db      *gorm.DB
	users   []models.User
	events  *eventRecorder
	queue   *mockQueue
	direct  *DirectService
	circles *CircleService
	invites *InviteService
}

func newFixture(t *testing.T, flags string, handles ...string) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := testutil.SeedUsers(t, db, handles...)

	userRepo := repository.NewUserRepository(db)
	circleRepo := repository.NewCircleRepository(db)
	memberRepo := repository.NewMembershipRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	events := &eventRecorder{}
	queue := &mockQueue{}

	return &fixture{
		db:      db,
		users:   users,
		events:  events,
		queue:   queue,
		direct:  NewDirectService(repository.NewDirectRepository(db), userRepo, events),
		circles: NewCircleService(circleRepo, memberRepo, userRepo, events),
		invites: NewInviteService(inviteRepo, memberRepo, circleRepo, queue, featureflags.NewManager(flags), "https://wayfarer.test"),
	}
}
