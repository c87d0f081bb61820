package models

import "time"

// Message is one entry in a conversation's log. Seq is the server-assigned,
// strictly increasing position within the conversation; it doubles as the
// sync cursor. SenderName is denormalized at write time so history renders
// correctly after profile renames. SentAt comes from the server clock;
// client timestamps are never used for ordering.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Seq            int64     `db:"seq" json:"seq"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	SenderName     string    `db:"sender_name" json:"sender_name"`
	Content        string    `db:"content" json:"content"`
	AttachmentRef  string    `db:"attachment_ref" json:"attachment_ref,omitempty"`
	Edited         bool      `db:"edited" json:"edited"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
}
