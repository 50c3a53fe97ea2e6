// Package inbox merges direct conversations, groups and communities into the
// single time-sorted list the conversation screen renders.
package inbox

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"wayfarer/internal/models"
)

// UnknownUser is shown for a direct conversation whose peer has neither a
// full name nor a handle.
const UnknownUser = "Unknown user"

// Tab filters which collections participate in a refresh.
type Tab string

const (
	TabAll         Tab = "all"
	TabDirect      Tab = "direct"
	TabGroups      Tab = "groups"
	TabCommunities Tab = "communities"
	TabArchived    Tab = "archived"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAll, TabDirect, TabGroups, TabCommunities, TabArchived}

// ParseTab accepts a tab name; an empty string means TabAll.
func ParseTab(raw string) (Tab, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return TabAll, true
	}
	for _, t := range Tabs {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Includes reports whether items of kind participate in t.
func (t Tab) Includes(kind models.Kind) bool {
	switch t {
	case TabAll, TabArchived:
		return true
	case TabDirect:
		return kind == models.KindDirect
	case TabGroups:
		return kind == models.KindGroup
	case TabCommunities:
		return kind == models.KindCommunity
	}
	return false
}

// Archived reports whether t fetches archived rows.
func (t Tab) Archived() bool { return t == TabArchived }

// Item is the normalized, read-only list row.
type Item struct {
	ID                 uint        `json:"id"`
	Kind               models.Kind `json:"kind"`
	DisplayName        string      `json:"display_name"`
	AvatarRef          string      `json:"avatar_ref"`
	LastMessagePreview string      `json:"last_message_preview"`
	LastActivityAt     *time.Time  `json:"last_activity_at"`
	UnreadCount        int         `json:"unread_count"`
	IsArchived         bool        `json:"is_archived"`
}

// Key identifies an item across kinds.
type Key struct {
	Kind models.Kind
	ID   uint
}

// Key returns the (kind, id) identity of it.
func (it Item) Key() Key { return Key{Kind: it.Kind, ID: it.ID} }

// FromDirect maps a direct conversation as seen by viewerID.
func FromDirect(dc models.DirectConversation, viewerID uint) Item {
	name := UnknownUser
	avatar := ""
	if peer := dc.Peer(viewerID); peer != nil {
		switch {
		case strings.TrimSpace(peer.FullName) != "":
			name = peer.FullName
		case strings.TrimSpace(peer.Username) != "":
			name = peer.Username
		}
		avatar = peer.AvatarURL
	}
	return Item{
		ID:                 dc.ID,
		Kind:               models.KindDirect,
		DisplayName:        name,
		AvatarRef:          avatar,
		LastMessagePreview: dc.LastMessage,
		LastActivityAt:     activity(dc.LastMessageAt, dc.CreatedAt),
		UnreadCount:        clampUnread(dc.UnreadFor(viewerID)),
		IsArchived:         dc.ArchivedFor(viewerID),
	}
}

// FromGroup maps a group; its preview is the last message, if any.
func FromGroup(g models.Group) Item {
	return Item{
		ID:                 g.ID,
		Kind:               models.KindGroup,
		DisplayName:        g.Name,
		AvatarRef:          g.AvatarURL,
		LastMessagePreview: g.LastMessage,
		LastActivityAt:     activity(g.LastMessageAt, g.CreatedAt),
		UnreadCount:        clampUnread(g.UnreadCount),
		IsArchived:         g.Archived,
	}
}

// FromCommunity maps a community; its preview is the member count.
func FromCommunity(c models.Community) Item {
	return Item{
		ID:                 c.ID,
		Kind:               models.KindCommunity,
		DisplayName:        c.Name,
		AvatarRef:          c.AvatarURL,
		LastMessagePreview: MemberCountLabel(c.MemberCount),
		LastActivityAt:     activity(c.LastMessageAt, c.CreatedAt),
		UnreadCount:        clampUnread(c.UnreadCount),
		IsArchived:         c.Archived,
	}
}

// MemberCountLabel renders "1 member" or "N members".
func MemberCountLabel(n int) string {
	if n < 0 {
		n = 0
	}
	if n == 1 {
		return "1 member"
	}
	return strconv.Itoa(n) + " members"
}

// Merge concatenates lists, drops repeated (kind, id) pairs keeping the first,
// and sorts by LastActivityAt descending with missing timestamps last.
func Merge(lists ...[]Item) []Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]Item, 0, total)
	seen := make(map[Key]struct{}, total)
	for _, l := range lists {
		for _, it := range l {
			if _, dup := seen[it.Key()]; dup {
				continue
			}
			seen[it.Key()] = struct{}{}
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].LastActivityAt, out[j].LastActivityAt)
	})
	return out
}

func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// activity prefers the last message time and falls back to creation, so a
// freshly created row sorts by when it appeared.
func activity(lastMessageAt *time.Time, createdAt time.Time) *time.Time {
	if lastMessageAt != nil {
		t := *lastMessageAt
		return &t
	}
	if createdAt.IsZero() {
		return nil
	}
	t := createdAt
	return &t
}

func clampUnread(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// TabFor is the single-kind tab items of kind are listed under.
func TabFor(kind models.Kind) Tab {
	switch kind {
	case models.KindGroup:
		return TabGroups
	case models.KindCommunity:
		return TabCommunities
	default:
		return TabDirect
	}
}
