package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// ReadCursorRepository is the only writer of read cursors and viewer flags.
type ReadCursorRepository interface {
	Get(ctx context.Context, conversationID, userID string) (models.ReadCursor, error)
	Advance(ctx context.Context, conversationID, userID string, seq int64) (int64, error)
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)
	UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int, error)
	Flags(ctx context.Context, userID string, conversationIDs []string) (map[string]models.ReadCursor, error)
	SetFlags(ctx context.Context, conversationID, userID string, pinned, muted *bool) error
}

// ReadCursorRepo is the sqlx implementation of ReadCursorRepository.
type ReadCursorRepo struct {
	db *sqlx.DB
}

// NewReadCursorRepo constructs a ReadCursorRepo.
func NewReadCursorRepo(db *sqlx.DB) *ReadCursorRepo {
	return &ReadCursorRepo{db: db}
}

// Get returns the viewer's cursor, zero-valued when none has been recorded.
func (r *ReadCursorRepo) Get(ctx context.Context, conversationID, userID string) (models.ReadCursor, error) {
	var cur models.ReadCursor
	err := r.db.GetContext(ctx, &cur, `SELECT conversation_id, user_id, last_read_seq, pinned, muted, updated_at
        FROM read_cursors WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadCursor{ConversationID: conversationID, UserID: userID}, nil
	}
	if err != nil {
		return models.ReadCursor{}, errs.Transientf("get cursor: %v", err)
	}
	return cur, nil
}

// Advance moves the cursor forward to seq and returns the stored value.
// GREATEST keeps the cursor monotonic: an attempt to move it backward leaves
// it untouched and is not an error.
func (r *ReadCursorRepo) Advance(ctx context.Context, conversationID, userID string, seq int64) (int64, error) {
	var stored int64
	err := r.db.QueryRowxContext(ctx, `INSERT INTO read_cursors (conversation_id, user_id, last_read_seq)
        VALUES ($1, $2, $3)
        ON CONFLICT (conversation_id, user_id)
        DO UPDATE SET last_read_seq = GREATEST(read_cursors.last_read_seq, EXCLUDED.last_read_seq), updated_at = NOW()
        RETURNING last_read_seq`, conversationID, userID, seq).Scan(&stored)
	if err != nil {
		return 0, errs.Transientf("advance cursor: %v", err)
	}
	return stored, nil
}

// UnreadCount counts messages past the viewer's cursor that they did not
// send themselves.
func (r *ReadCursorRepo) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages m
        WHERE m.conversation_id=$1 AND m.sender_id<>$2
        AND m.seq > COALESCE((SELECT last_read_seq FROM read_cursors WHERE conversation_id=$1 AND user_id=$2), 0)`,
		conversationID, userID)
	if err != nil {
		return 0, errs.Transientf("unread count: %v", err)
	}
	return count, nil
}

// UnreadCounts batches UnreadCount over several conversations for the list
// view. Conversations with no unread messages are absent from the result.
func (r *ReadCursorRepo) UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int, error) {
	if len(conversationIDs) == 0 {
		return map[string]int{}, nil
	}
	query, args, err := sqlx.In(`SELECT m.conversation_id, COUNT(*) AS unread FROM messages m
        LEFT JOIN read_cursors rc ON rc.conversation_id = m.conversation_id AND rc.user_id = ?
        WHERE m.conversation_id IN (?) AND m.sender_id <> ? AND m.seq > COALESCE(rc.last_read_seq, 0)
        GROUP BY m.conversation_id`, userID, conversationIDs, userID)
	if err != nil {
		return nil, errs.Transientf("build unread query: %v", err)
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Transientf("load unread counts: %v", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var conversationID string
		var unread int
		if err := rows.Scan(&conversationID, &unread); err != nil {
			return nil, errs.Transientf("scan unread count: %v", err)
		}
		counts[conversationID] = unread
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Transientf("unread counts: %v", err)
	}
	return counts, nil
}

// Flags returns the viewer's cursor rows (pinned/muted) for the given
// conversations. Conversations with no row are absent.
func (r *ReadCursorRepo) Flags(ctx context.Context, userID string, conversationIDs []string) (map[string]models.ReadCursor, error) {
	if len(conversationIDs) == 0 {
		return map[string]models.ReadCursor{}, nil
	}
	query, args, err := sqlx.In(`SELECT conversation_id, user_id, last_read_seq, pinned, muted, updated_at
        FROM read_cursors WHERE user_id = ? AND conversation_id IN (?)`, userID, conversationIDs)
	if err != nil {
		return nil, errs.Transientf("build flags query: %v", err)
	}
	query = r.db.Rebind(query)

	var cursors []models.ReadCursor
	if err := r.db.SelectContext(ctx, &cursors, query, args...); err != nil {
		return nil, errs.Transientf("load flags: %v", err)
	}
	byConversation := make(map[string]models.ReadCursor, len(cursors))
	for _, cur := range cursors {
		byConversation[cur.ConversationID] = cur
	}
	return byConversation, nil
}

// SetFlags updates the viewer's pinned/muted flags; nil leaves a flag as is.
func (r *ReadCursorRepo) SetFlags(ctx context.Context, conversationID, userID string, pinned, muted *bool) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO read_cursors (conversation_id, user_id, pinned, muted)
        VALUES ($1, $2, COALESCE($3, FALSE), COALESCE($4, FALSE))
        ON CONFLICT (conversation_id, user_id)
        DO UPDATE SET pinned = COALESCE($3, read_cursors.pinned), muted = COALESCE($4, read_cursors.muted), updated_at = NOW()`,
		conversationID, userID, pinned, muted)
	if err != nil {
		return errs.Transientf("set flags: %v", err)
	}
	return nil
}
