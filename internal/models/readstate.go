package models

import "time"

// ReadCursor tracks per-viewer read progress in a conversation.
// LastReadSeq only ever moves forward. Pinned and muted live here because
// they are viewer-specific, not properties of the conversation.
type ReadCursor struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	LastReadSeq    int64     `db:"last_read_seq" json:"last_read_seq"`
	Pinned         bool      `db:"pinned" json:"pinned"`
	Muted          bool      `db:"muted" json:"muted"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
