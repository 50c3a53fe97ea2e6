package models

import "strings"

// Kind discriminates the three collaboration primitives merged into the inbox.
type Kind string

const (
	// KindDirect is a 1:1 conversation.
	KindDirect Kind = "direct"
	// KindGroup is a named, usually private, multi-party circle.
	KindGroup Kind = "group"
	// KindCommunity is a named, usually public, multi-party circle.
	KindCommunity Kind = "community"
)

// Kinds lists every Kind in inbox display order.
var Kinds = []Kind{KindDirect, KindGroup, KindCommunity}

// ParseKind accepts singular or plural spellings ("groups", "communities").
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "direct", "conversation", "conversations", "dm":
		return KindDirect, true
	case "group", "groups":
		return KindGroup, true
	case "community", "communities":
		return KindCommunity, true
	}
	return "", false
}

// IsCircle reports whether k is a multi-party kind (group or community).
func (k Kind) IsCircle() bool {
	return k == KindGroup || k == KindCommunity
}

func (k Kind) String() string { return string(k) }

// Table returns the table backing rows of kind k.
func (k Kind) Table() string {
	switch k {
	case KindGroup:
		return Group{}.TableName()
	case KindCommunity:
		return Community{}.TableName()
	default:
		return "direct_conversations"
	}
}

// Plural is the collection name used in routes ("groups", "communities").
func (k Kind) Plural() string {
	switch k {
	case KindGroup:
		return "groups"
	case KindCommunity:
		return "communities"
	default:
		return "conversations"
	}
}
