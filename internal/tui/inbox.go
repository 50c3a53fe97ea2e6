// Package tui is the interactive inbox browser behind `wayctl inbox --tui`.
package tui

import (
	"context"
	"fmt"
	"strings"

	"wayfarer/internal/gesture"
	"wayfarer/internal/inbox"
	"wayfarer/internal/lifecycle"
	"wayfarer/internal/middleware"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Rows start below the title, the tab bar and a blank line.
const listTop = 3

// Deps wires the browser to one viewer's data.
type Deps struct {
	Loader  *inbox.Loader
	Backend lifecycle.Backend
	Tab     inbox.Tab
	// Clock overrides the long-press timer, for tests.
	Clock gesture.Clock
}

// RunInbox runs the browser until the user quits.
func RunInbox(ctx context.Context, deps Deps) error {
	m := newInboxModel(ctx, deps)
	defer m.close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

type refreshedMsg struct {
	items []inbox.Item
	fresh bool
}

type clickMsg struct{ key inbox.Key }

type openMenuMsg struct{ key inbox.Key }

type confirmedMsg struct {
	notice lifecycle.Notice
	err    error
}

type menuState struct {
	item    inbox.Item
	actions []lifecycle.Action
	cursor  int
	top     int
}

type inboxModel struct {
	ctx     context.Context
	loader  *inbox.Loader
	machine *lifecycle.Machine

	bus       *gesture.Bus
	press     *gesture.LongPress
	dismisser *gesture.Dismisser
	// gestures carries detector callbacks, which may fire on a timer
	// goroutine, back into Update.
	gestures chan tea.Msg

	tab     inbox.Tab
	items   []inbox.Item
	cursor  int
	menu    *menuState
	pending *lifecycle.Pending
	working bool
	notice  *lifecycle.Notice
	width   int
}

func newInboxModel(ctx context.Context, deps Deps) *inboxModel {
	tab := deps.Tab
	if tab == "" {
		tab = inbox.TabAll
	}
	m := &inboxModel{
		ctx:      ctx,
		loader:   deps.Loader,
		machine:  lifecycle.NewMachine(deps.Backend, deps.Loader, &lifecycle.Selection{}, middleware.Logger),
		bus:      gesture.NewBus(),
		gestures: make(chan tea.Msg, 8),
		tab:      tab,
	}
	m.press = gesture.NewLongPress(gesture.Options{
		Observer:    m.bus,
		Clock:       deps.Clock,
		OnClick:     func(ev gesture.Event) { m.emit(ev, func(k inbox.Key) tea.Msg { return clickMsg{k} }) },
		OnLongPress: func(ev gesture.Event) { m.emit(ev, func(k inbox.Key) tea.Msg { return openMenuMsg{k} }) },
	})
	m.dismisser = &gesture.Dismisser{
		Observer:  m.bus,
		Bounds:    m.menuBounds,
		OnDismiss: m.closeMenu,
	}
	return m
}

func (m *inboxModel) emit(ev gesture.Event, wrap func(inbox.Key) tea.Msg) {
	key, ok := ev.Target.(inbox.Key)
	if !ok {
		return
	}
	select {
	case m.gestures <- wrap(key):
	default:
	}
}

func (m *inboxModel) close() {
	m.press.Reset()
	m.dismisser.Unmount()
}

func (m *inboxModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(m.tab), m.waitForGesture())
}

func (m *inboxModel) refresh(tab inbox.Tab) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		items, fresh := loader.Refresh(ctx, tab)
		return refreshedMsg{items: items, fresh: fresh}
	}
}

func (m *inboxModel) waitForGesture() tea.Cmd {
	ch := m.gestures
	return func() tea.Msg { return <-ch }
}

func (m *inboxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshedMsg:
		if msg.fresh {
			m.items = msg.items
			m.clampCursor()
		}
		return m, nil

	case clickMsg:
		m.selectKey(msg.key)
		return m, m.waitForGesture()

	case openMenuMsg:
		m.openMenu(msg.key)
		return m, m.waitForGesture()

	case confirmedMsg:
		m.working = false
		m.notice = &msg.notice
		m.items = m.loader.Items()
		m.tab = m.loader.Tab()
		m.clampCursor()
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *inboxModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	ev := gesture.Event{X: float64(msg.X), Y: float64(msg.Y)}
	if key, ok := m.rowAt(msg.Y); ok {
		ev.Target = key
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft && msg.Button != tea.MouseButtonRight {
			return nil
		}
		ev.Type = gesture.EventPointerDown
		menuOpen := m.menu != nil
		m.bus.Dispatch(ev)
		if menuOpen {
			// An outside press only dismisses the menu.
			if m.menu != nil && msg.Button == tea.MouseButtonLeft {
				if i, ok := m.menuRowAt(msg.Y); ok {
					m.menu.cursor = i
					m.chooseAction()
				}
			}
			return nil
		}
		if m.pending != nil || ev.Target == nil {
			return nil
		}
		if msg.Button == tea.MouseButtonRight {
			ev.Type = gesture.EventContextMenu
			m.press.ContextMenu(ev)
			return nil
		}
		m.press.Press(ev)

	case tea.MouseActionRelease:
		ev.Type = gesture.EventPointerUp
		m.press.Release(ev)

	case tea.MouseActionMotion:
		if m.press.Pressing() && ev.Target == nil {
			m.press.Leave(ev)
		}
	}
	return nil
}

func (m *inboxModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.pending != nil {
		switch key {
		case "y", "enter":
			if m.working {
				return m, nil
			}
			m.working = true
			m.pending = nil
			machine, ctx := m.machine, m.ctx
			return m, func() tea.Msg {
				notice, err := machine.Confirm(ctx)
				return confirmedMsg{notice: notice, err: err}
			}
		case "n", "esc":
			m.machine.Cancel()
			m.pending = nil
		}
		return m, nil
	}

	if m.menu != nil {
		switch key {
		case "up", "k":
			if m.menu.cursor > 0 {
				m.menu.cursor--
			}
		case "down", "j":
			if m.menu.cursor < len(m.menu.actions)-1 {
				m.menu.cursor++
			}
		case "enter":
			m.chooseAction()
		case "esc", "q":
			m.closeMenu()
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if it, ok := m.current(); ok {
			m.selectKey(it.Key())
		}
	case "m", ".":
		if it, ok := m.current(); ok {
			m.openMenu(it.Key())
		}
	case "tab":
		return m, m.switchTab(1)
	case "shift+tab":
		return m, m.switchTab(-1)
	case "r":
		return m, m.refresh(m.tab)
	}
	return m, nil
}

func (m *inboxModel) switchTab(delta int) tea.Cmd {
	idx := 0
	for i, t := range inbox.Tabs {
		if t == m.tab {
			idx = i
		}
	}
	n := len(inbox.Tabs)
	m.tab = inbox.Tabs[((idx+delta)%n+n)%n]
	m.cursor = 0
	m.notice = nil
	return m.refresh(m.tab)
}

func (m *inboxModel) selectKey(key inbox.Key) {
	for i, it := range m.items {
		if it.Key() == key {
			m.cursor = i
			m.machine.Selection().Select(key)
			return
		}
	}
}

func (m *inboxModel) openMenu(key inbox.Key) {
	if m.pending != nil || m.working {
		return
	}
	for i, it := range m.items {
		if it.Key() != key {
			continue
		}
		m.cursor = i
		m.menu = &menuState{
			item:    it,
			actions: lifecycle.MenuFor(it.Kind, it.IsArchived),
			top:     listTop + m.rowCount() + 1,
		}
		m.dismisser.Mount()
		return
	}
}

func (m *inboxModel) closeMenu() {
	m.menu = nil
	m.dismisser.Unmount()
}

func (m *inboxModel) chooseAction() {
	if m.menu == nil {
		return
	}
	item, action := m.menu.item, m.menu.actions[m.menu.cursor]
	m.closeMenu()
	p, err := m.machine.Request(item, action)
	if err != nil {
		m.notice = &lifecycle.Notice{Kind: lifecycle.NoticeFailure, Text: err.Error()}
		return
	}
	m.pending = p
}

// menuBounds is the menu box including its border.
func (m *inboxModel) menuBounds() gesture.Rect {
	if m.menu == nil {
		return gesture.Rect{}
	}
	return gesture.Rect{
		X: 0,
		Y: float64(m.menu.top),
		W: float64(menuWidth + 2),
		H: float64(len(m.menu.actions) + 2),
	}
}

func (m *inboxModel) menuRowAt(y int) (int, bool) {
	i := y - m.menu.top - 1
	if i < 0 || i >= len(m.menu.actions) {
		return 0, false
	}
	return i, true
}

func (m *inboxModel) rowAt(y int) (inbox.Key, bool) {
	i := y - listTop
	if i < 0 || i >= len(m.items) {
		return inbox.Key{}, false
	}
	return m.items[i].Key(), true
}

func (m *inboxModel) rowCount() int {
	if len(m.items) == 0 {
		return 1
	}
	return len(m.items)
}

func (m *inboxModel) current() (inbox.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return inbox.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *inboxModel) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

const menuWidth = 24

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#6c757d"))
	activeTab     = tabStyle.Foreground(lipgloss.Color("#f8f9fa")).Background(lipgloss.Color("#3d5a80")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ee6c4d"))
	selectedStyle = lipgloss.NewStyle().Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	menuStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(menuWidth)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2a9d8f"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
)

func (m *inboxModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Wayfarer inbox"))
	b.WriteString("\n")

	tabs := make([]string, 0, len(inbox.Tabs))
	for _, t := range inbox.Tabs {
		if t == m.tab {
			tabs = append(tabs, activeTab.Render(string(t)))
		} else {
			tabs = append(tabs, tabStyle.Render(string(t)))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	selected, hasSelection := m.machine.Selection().Selected()
	if len(m.items) == 0 {
		b.WriteString(mutedStyle.Render("No conversations."))
		b.WriteString("\n")
	}
	for i, it := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		name := it.DisplayName
		if hasSelection && selected == it.Key() {
			name = selectedStyle.Render(name)
		}
		line := fmt.Sprintf("%s%-10s %s  %s", marker, it.Kind, name, mutedStyle.Render(it.LastMessagePreview))
		if it.UnreadCount > 0 {
			line += cursorStyle.Render(fmt.Sprintf("  (%d)", it.UnreadCount))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.menu != nil:
		rows := make([]string, len(m.menu.actions))
		for i, a := range m.menu.actions {
			label := "  " + string(a)
			if i == m.menu.cursor {
				label = cursorStyle.Render("> " + string(a))
			}
			rows[i] = label
		}
		b.WriteString(menuStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	case m.pending != nil:
		b.WriteString(m.pending.Prompt + " [y/N]\n")
	case m.working:
		b.WriteString(mutedStyle.Render("Working...") + "\n")
	}

	if m.notice != nil {
		style := successStyle
		if m.notice.Kind == lifecycle.NoticeFailure {
			style = failureStyle
		}
		b.WriteString(style.Render(m.notice.Text))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("click: select  hold/right-click/m: actions  tab: switch list  r: refresh  q: quit"))
	return b.String()
}
