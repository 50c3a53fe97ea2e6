package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"wayfarer/internal/gesture"
	"wayfarer/internal/inbox"
	"wayfarer/internal/lifecycle"
	"wayfarer/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) gesture.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fire() {
	c.mu.Lock()
	timers := append([]*manualTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

// fakeStore serves one direct conversation and one group, and records
// archive calls.
type fakeStore struct {
	mu       sync.Mutex
	archived map[inbox.Key]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{archived: map[inbox.Key]bool{}}
}

func (f *fakeStore) ListDirect(_ context.Context, archived bool) ([]models.DirectConversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archived[inbox.Key{Kind: models.KindDirect, ID: 1}] != archived {
		return nil, nil
	}
	now := time.Now()
	return []models.DirectConversation{{
		ID: 1, UserAID: 1, UserBID: 2,
		UserB:         &models.User{ID: 2, Username: "bea"},
		LastMessageAt: &now,
		ArchivedByA:   archived,
	}}, nil
}

func (f *fakeStore) ListGroups(_ context.Context, archived bool) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archived[inbox.Key{Kind: models.KindGroup, ID: 5}] != archived {
		return nil, nil
	}
	return []models.Group{{Circle: models.Circle{ID: 5, Name: "Trip Squad", Archived: archived}}}, nil
}

func (f *fakeStore) ListCommunities(context.Context, bool) ([]models.Community, error) {
	return nil, nil
}

func (f *fakeStore) setArchived(kind models.Kind, id uint, archive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived[inbox.Key{Kind: kind, ID: id}] = archive
	return nil
}

func (f *fakeStore) ArchiveDirect(_ context.Context, id uint, archive bool) error {
	return f.setArchived(models.KindDirect, id, archive)
}

func (f *fakeStore) ArchiveGroup(_ context.Context, id uint, archive bool) error {
	return f.setArchived(models.KindGroup, id, archive)
}

func (f *fakeStore) ArchiveCommunity(_ context.Context, id uint, archive bool) error {
	return f.setArchived(models.KindCommunity, id, archive)
}

func (f *fakeStore) DeleteDirect(context.Context, uint) error { return nil }
func (f *fakeStore) LeaveGroup(context.Context, uint) error   { return nil }
func (f *fakeStore) LeaveCommunity(context.Context, uint) error {
	return nil
}

func newTestModel(t *testing.T) (*inboxModel, *fakeStore, *manualClock) {
	t.Helper()
	store := newFakeStore()
	clock := &manualClock{}
	m := newInboxModel(context.Background(), Deps{
		Loader:  inbox.NewLoader(store, 1, nil),
		Backend: store,
		Clock:   clock,
	})
	t.Cleanup(m.close)

	m.Update(m.refresh(m.tab)())
	require.Len(t, m.items, 2)
	return m, store, clock
}

func nextGesture(t *testing.T, m *inboxModel) tea.Msg {
	t.Helper()
	select {
	case msg := <-m.gestures:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no gesture emitted")
		return nil
	}
}

func mouse(x, y int, button tea.MouseButton, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: button, Action: action}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInbox_ClickSelectsRow(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(mouse(4, listTop+1, tea.MouseButtonLeft, tea.MouseActionPress))
	m.Update(mouse(4, listTop+1, tea.MouseButtonNone, tea.MouseActionRelease))
	m.Update(nextGesture(t, m))

	sel, ok := m.machine.Selection().Selected()
	require.True(t, ok)
	assert.Equal(t, m.items[1].Key(), sel)
	assert.Equal(t, 1, m.cursor)
	assert.Nil(t, m.menu)
}

func TestInbox_HoldOpensMenuWithoutClick(t *testing.T) {
	m, _, clock := newTestModel(t)

	m.Update(mouse(4, listTop, tea.MouseButtonLeft, tea.MouseActionPress))
	clock.fire()
	msg := nextGesture(t, m)
	require.IsType(t, openMenuMsg{}, msg)
	m.Update(msg)
	m.Update(mouse(4, listTop, tea.MouseButtonNone, tea.MouseActionRelease))

	require.NotNil(t, m.menu)
	assert.Equal(t, lifecycle.MenuFor(m.items[0].Kind, false), m.menu.actions)
	assert.True(t, m.dismisser.Mounted())
	assert.Empty(t, m.gestures, "release after a long press is not a click")
}

func TestInbox_RightClickAndOutsideDismiss(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(mouse(4, listTop, tea.MouseButtonRight, tea.MouseActionPress))
	m.Update(nextGesture(t, m))
	require.NotNil(t, m.menu)

	// Inside the menu box border: stays open.
	m.Update(mouse(1, m.menu.top, tea.MouseButtonLeft, tea.MouseActionPress))
	require.NotNil(t, m.menu)

	// Far outside: dismissed, and the press does not start a new hold.
	m.Update(mouse(60, listTop+1, tea.MouseButtonLeft, tea.MouseActionPress))
	assert.Nil(t, m.menu)
	assert.False(t, m.dismisser.Mounted())
	assert.False(t, m.press.Pressing())
}

func TestInbox_ArchiveFromMenuAfterConfirm(t *testing.T) {
	m, store, _ := newTestModel(t)
	group := m.items[1]
	require.Equal(t, models.KindGroup, group.Kind)

	m.Update(key("j"))
	m.Update(key("m"))
	require.NotNil(t, m.menu)
	require.Equal(t, lifecycle.ActionArchive, m.menu.actions[0])

	m.Update(key("enter"))
	require.NotNil(t, m.pending)
	assert.Contains(t, m.pending.Prompt, "Trip Squad")

	_, cmd := m.Update(key("y"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.NotNil(t, m.notice)
	assert.Equal(t, lifecycle.NoticeSuccess, m.notice.Kind)
	assert.True(t, store.archived[group.Key()])
	require.Len(t, m.items, 1)
	assert.Equal(t, models.KindDirect, m.items[0].Kind)
}

func TestInbox_CancelLeavesListAlone(t *testing.T) {
	m, store, _ := newTestModel(t)

	m.Update(key("m"))
	m.Update(key("enter"))
	require.NotNil(t, m.pending)
	m.Update(key("n"))

	assert.Nil(t, m.pending)
	_, staged := m.machine.Pending()
	assert.False(t, staged)
	assert.Empty(t, store.archived)
	assert.Len(t, m.items, 2)
}

func TestInbox_TabCycles(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, inbox.TabDirect, m.tab)
	require.Len(t, m.items, 1)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(cmd())
	assert.Equal(t, inbox.TabAll, m.tab)
	assert.Contains(t, m.View(), "Trip Squad")
}
