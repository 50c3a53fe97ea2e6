package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wayfarer/internal/membership"
	"wayfarer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	mu          sync.Mutex
	groups      []membership.GroupInput
	communities []membership.CommunityInput
	invites     []string
	failInvite  map[string]bool
	createErr   error
	block       chan struct{}
}

func (f *fakeCreator) CreateGroup(_ context.Context, in membership.GroupInput) (*models.Group, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.groups = append(f.groups, in)
	return &models.Group{Circle: models.Circle{ID: uint(len(f.groups)), Name: in.Name}}, nil
}

func (f *fakeCreator) CreateCommunity(_ context.Context, in membership.CommunityInput) (*models.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.communities = append(f.communities, in)
	return &models.Community{Circle: models.Circle{ID: 40 + uint(len(f.communities)), Name: in.Name}}, nil
}

func (f *fakeCreator) CreateInvite(_ context.Context, _ models.Kind, _ uint, email *string) (*models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInvite[*email] {
		return nil, models.NewCollaboratorFailure("create invite", errors.New("smtp relay down"))
	}
	f.invites = append(f.invites, *email)
	return &models.Invite{ID: uint(len(f.invites)), Email: email}, nil
}

type fakeDirect struct {
	mu    sync.Mutex
	peers []uint
	block chan struct{}
}

func (f *fakeDirect) CreateDirect(_ context.Context, peerID uint) (*models.DirectConversation, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peers = append(f.peers, peerID)
	return &models.DirectConversation{ID: 100 + peerID}, nil
}

func TestSteps_DirectSkipsDetails(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	assert.Equal(t, StepSelectType, f.Step())
	assert.True(t, models.IsValidation(f.Next()), "a type must be chosen first")

	require.NoError(t, f.SelectType(models.KindDirect))
	require.NoError(t, f.Next())
	assert.Equal(t, StepMembers, f.Step())

	require.NoError(t, f.Back())
	assert.Equal(t, StepSelectType, f.Step())
}

func TestSteps_CircleGoesThroughDetails(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	require.NoError(t, f.Next())
	assert.Equal(t, StepDetails, f.Step())

	f.SetName("   ")
	assert.False(t, f.CanProceedFromDetails())
	assert.True(t, models.IsValidation(f.Next()))

	f.SetName("Trip Squad")
	assert.True(t, f.CanProceedFromDetails())
	require.NoError(t, f.Next())
	assert.Equal(t, StepMembers, f.Step())

	require.NoError(t, f.Back())
	assert.Equal(t, StepDetails, f.Step())
	assert.True(t, f.CanProceedFromDetails(), "values survive going back")
}

func TestSelectType_Defaults(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindCommunity))
	assert.True(t, f.IsPublic())
	require.NoError(t, f.SelectType(models.KindGroup))
	assert.False(t, f.IsPublic())
	assert.True(t, models.IsValidation(f.SelectType(models.Kind("channel"))))

	require.NoError(t, f.Next())
	assert.True(t, models.IsInvalidState(f.SelectType(models.KindCommunity)))
}

func TestCreationGating(t *testing.T) {
	for _, kind := range []models.Kind{models.KindGroup, models.KindCommunity} {
		t.Run(string(kind), func(t *testing.T) {
			f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
			require.NoError(t, f.SelectType(kind))
			f.SetName("Trip Squad")
			f.SetPublic(false)

			assert.False(t, f.CanProceedFromMembers())
			_, err := f.Submit(context.Background())
			assert.True(t, models.IsValidation(err))

			bob := models.User{ID: 2, Username: "bob", Email: "bob@example.com"}
			assert.True(t, f.ToggleMember(bob))
			assert.True(t, f.CanProceedFromMembers())
			assert.False(t, f.ToggleMember(bob))
			assert.False(t, f.CanProceedFromMembers())

			require.NoError(t, f.AddExternalInvite("dana@example.com"))
			assert.True(t, f.CanProceedFromMembers())
			f.RemoveExternalInvite("DANA@example.com")
			assert.False(t, f.CanProceedFromMembers())

			f.SetPublic(true)
			assert.True(t, f.CanProceedFromMembers(), "public circles may start empty")
		})
	}
}

func TestAddExternalInvite(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))

	require.NoError(t, f.AddExternalInvite(" Dana@Example.com "))
	require.NoError(t, f.AddExternalInvite("dana@example.com"))
	assert.True(t, models.IsValidation(f.AddExternalInvite("dana@")))
	assert.Equal(t, []string{"dana@example.com"}, f.Invites())

	d := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, d.SelectType(models.KindDirect))
	assert.True(t, models.IsValidation(d.AddExternalInvite("dana@example.com")))
}

func TestSubmit_InviteFailuresDoNotRollBack(t *testing.T) {
	creator := &fakeCreator{failInvite: map[string]bool{"bad@example.com": true}}
	f := NewFlow(creator, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	f.SetName("Trip Squad")
	f.ToggleMember(models.User{ID: 2})
	f.ToggleMember(models.User{ID: 3})
	require.NoError(t, f.AddExternalInvite("ok@example.com"))
	require.NoError(t, f.AddExternalInvite("bad@example.com"))

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{ID: 1, Kind: models.KindGroup, FailedInvites: []string{"bad@example.com"}}, res)
	assert.Equal(t, StepDone, f.Step())

	require.Len(t, creator.groups, 1)
	assert.Equal(t, []uint{2, 3}, creator.groups[0].MemberIDs)
	assert.False(t, *creator.groups[0].IsPublic)
	assert.Equal(t, []string{"ok@example.com"}, creator.invites)

	again, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.Len(t, creator.groups, 1, "a completed flow never creates twice")
}

func TestSubmit_CommunityInvitesSelectedPeople(t *testing.T) {
	creator := &fakeCreator{}
	f := NewFlow(creator, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindCommunity))
	f.SetName("Hikers")
	f.ToggleMember(models.User{ID: 2, Email: "Bob@Example.com"})
	require.NoError(t, f.AddExternalInvite("bob@example.com"))

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.KindCommunity, res.Kind)
	require.Len(t, creator.communities, 1)
	assert.True(t, *creator.communities[0].IsPublic)
	assert.Equal(t, []string{"bob@example.com"}, creator.invites)
}

func TestSubmit_CommunityPickWithoutEmail(t *testing.T) {
	creator := &fakeCreator{}
	f := NewFlow(creator, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindCommunity))
	f.SetName("Hikers")
	f.SetPublic(false)

	f.ToggleMember(models.User{ID: 2, Username: "bob"})
	assert.False(t, f.CanProceedFromMembers(), "nobody to invite")
	_, err := f.Submit(context.Background())
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, creator.communities)

	f.ToggleMember(models.User{ID: 3, Username: "cat", Email: "cat@example.com"})
	require.True(t, f.CanProceedFromMembers())

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"@bob"}, res.FailedInvites)
	assert.Equal(t, []string{"cat@example.com"}, creator.invites)
}

func TestCreationGating_GroupPickNeedsNoEmail(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	f.SetName("Trip Squad")
	f.SetPublic(false)
	f.ToggleMember(models.User{ID: 2, Username: "bob"})
	assert.True(t, f.CanProceedFromMembers())
}

func TestSubmit_CreationFailureKeepsFlowOpen(t *testing.T) {
	creator := &fakeCreator{createErr: models.NewCollaboratorFailure("create group", errors.New("503"))}
	f := NewFlow(creator, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	f.SetName("Trip Squad")
	f.SetPublic(true)

	_, err := f.Submit(context.Background())
	assert.True(t, models.IsCollaboratorFailure(err))
	_, done := f.Result()
	assert.False(t, done)

	creator.createErr = nil
	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.ID)
}

func TestSubmit_RejectsDuplicateSubmission(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{})}
	f := NewFlow(creator, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	f.SetName("Trip Squad")
	f.SetPublic(true)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return f.busy.Load() }, time.Second, time.Millisecond)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(creator.block)
	require.NoError(t, <-done)
	assert.Len(t, creator.groups, 1)
}

func TestPickDirect_FirstPickWins(t *testing.T) {
	direct := &fakeDirect{}
	f := NewFlow(&fakeCreator{}, direct, nil)

	_, err := f.PickDirect(context.Background(), models.User{ID: 2})
	assert.True(t, models.IsInvalidState(err), "picking before the members step is rejected")

	require.NoError(t, f.SelectType(models.KindDirect))
	require.NoError(t, f.Next())

	res, err := f.PickDirect(context.Background(), models.User{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, Result{ID: 102, Kind: models.KindDirect}, res)
	assert.Equal(t, StepDone, f.Step())

	later, err := f.PickDirect(context.Background(), models.User{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, res, later)
	assert.Equal(t, []uint{2}, direct.peers)
}

func TestPickDirect_ConcurrentPickIsBusy(t *testing.T) {
	direct := &fakeDirect{block: make(chan struct{})}
	f := NewFlow(&fakeCreator{}, direct, nil)
	require.NoError(t, f.SelectType(models.KindDirect))
	require.NoError(t, f.Next())

	done := make(chan error, 1)
	go func() {
		_, err := f.PickDirect(context.Background(), models.User{ID: 2})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.busy.Load() }, time.Second, time.Millisecond)

	_, err := f.PickDirect(context.Background(), models.User{ID: 3})
	assert.ErrorIs(t, err, ErrBusy)

	close(direct.block)
	require.NoError(t, <-done)
	assert.Equal(t, []uint{2}, direct.peers)
}

func TestReset(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeDirect{}, nil)
	require.NoError(t, f.SelectType(models.KindGroup))
	f.SetName("Trip Squad")
	f.SetAvatar(&membership.AvatarFile{Filename: "a.png"})
	f.ToggleMember(models.User{ID: 2})
	require.NoError(t, f.Next())

	f.Reset()
	assert.Equal(t, StepSelectType, f.Step())
	assert.Equal(t, models.Kind(""), f.Kind())
	assert.Empty(t, f.Selected())
	assert.Empty(t, f.Invites())
}
