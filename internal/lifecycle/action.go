// Package lifecycle gates archive, unarchive, delete and leave on inbox
// items behind a confirmation step and refreshes the list afterwards.
package lifecycle

import (
	"strings"

	"wayfarer/internal/models"
)

// Action is a lifecycle operation on an inbox item.
type Action string

const (
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
	ActionDelete    Action = "delete"
	ActionLeave     Action = "leave"
)

// AllActions lists every action in menu order.
var AllActions = []Action{ActionArchive, ActionUnarchive, ActionDelete, ActionLeave}

// ParseAction parses a case-insensitive action name.
func ParseAction(raw string) (Action, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, a := range AllActions {
		if string(a) == raw {
			return a, true
		}
	}
	return "", false
}

// Allowed reports whether action may be applied to an item of kind. Direct
// conversations are deleted, never left; groups and communities are left,
// never deleted.
func Allowed(kind models.Kind, action Action) bool {
	switch action {
	case ActionArchive, ActionUnarchive:
		return kind == models.KindDirect || kind.IsCircle()
	case ActionDelete:
		return kind == models.KindDirect
	case ActionLeave:
		return kind.IsCircle()
	}
	return false
}

// MenuFor returns the actions offered for an item, choosing archive or
// unarchive by its current state.
func MenuFor(kind models.Kind, archived bool) []Action {
	var out []Action
	if archived {
		out = append(out, ActionUnarchive)
	} else {
		out = append(out, ActionArchive)
	}
	for _, a := range []Action{ActionDelete, ActionLeave} {
		if Allowed(kind, a) {
			out = append(out, a)
		}
	}
	return out
}

func (a Action) verb() string {
	switch a {
	case ActionArchive:
		return "archive"
	case ActionUnarchive:
		return "unarchive"
	case ActionDelete:
		return "delete"
	case ActionLeave:
		return "leave"
	}
	return string(a)
}

func (a Action) pastTense() string {
	switch a {
	case ActionArchive:
		return "archived"
	case ActionUnarchive:
		return "moved back to the inbox"
	case ActionDelete:
		return "deleted"
	case ActionLeave:
		return "left"
	}
	return string(a)
}
