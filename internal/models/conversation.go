package models

import "time"

// ConversationKind distinguishes two-party conversations from groups.
type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindGroup  ConversationKind = "group"
)

// MemberRole is the role a user holds inside one conversation. Direct
// conversations never have admins; groups always have at least one.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Conversation is a thread of messages among a fixed set of members.
// Title is only stored for groups; direct conversations derive their title
// from the peer's display name at read time so renames are never stale.
type Conversation struct {
	ID        string           `db:"id" json:"id"`
	Kind      ConversationKind `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// ConversationMember ties a user to a conversation with a role.
type ConversationMember struct {
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Role           MemberRole `db:"role" json:"role"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`
}

// ConversationSummary is the list-view projection of a conversation for one
// viewer: derived title, last message preview, unread count, viewer flags.
type ConversationSummary struct {
	ID          string           `json:"id"`
	Kind        ConversationKind `json:"kind"`
	Title       string           `json:"title"`
	PeerID      string           `json:"peer_id,omitempty"`
	PeerOnline  bool             `json:"peer_online,omitempty"`
	LastMessage *Message         `json:"last_message,omitempty"`
	UnreadCount int              `json:"unread_count"`
	Pinned      bool             `json:"pinned"`
	Muted       bool             `json:"muted"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
