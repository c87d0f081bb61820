package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// MessageRepository is the only writer of messages. Append serializes
// concurrent writers per conversation so seq assignment is a total order.
type MessageRepository interface {
	Append(ctx context.Context, conversationID, senderID, senderName, content, attachmentRef string) (models.Message, error)
	History(ctx context.Context, conversationID string, beforeSeq int64, limit int) ([]models.Message, error)
	Since(ctx context.Context, conversationID string, afterSeq int64) ([]models.Message, error)
	Get(ctx context.Context, conversationID string, seq int64) (models.Message, error)
	LatestByConversation(ctx context.Context, conversationIDs []string) (map[string]models.Message, error)
	UpdateContent(ctx context.Context, conversationID string, seq int64, senderID, content string) (models.Message, error)
}

// MessageRepo is the sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, seq, sender_id, sender_name, content, attachment_ref, edited, sent_at`

// Append stores a message with the next seq for the conversation and bumps
// the conversation's updated_at, all in one transaction. The conversation
// row is locked first so concurrent appends on the same conversation are
// serialized and seq gaps or duplicates cannot occur.
func (r *MessageRepo) Append(ctx context.Context, conversationID, senderID, senderName, content, attachmentRef string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, errs.Transientf("begin tx: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var locked string
	err = tx.GetContext(ctx, &locked, `SELECT id FROM conversations WHERE id=$1 FOR UPDATE`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, errs.NotFoundf("conversation %s", conversationID)
	}
	if err != nil {
		return models.Message{}, errs.Transientf("lock conversation: %v", err)
	}

	var msg models.Message
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (id, conversation_id, seq, sender_id, sender_name, content, attachment_ref)
        SELECT $1, $2, COALESCE(MAX(seq), 0) + 1, $3, $4, $5, $6 FROM messages WHERE conversation_id=$2
        RETURNING `+messageColumns, uuid.NewString(), conversationID, senderID, senderName, content, attachmentRef).
		StructScan(&msg)
	if err != nil {
		return models.Message{}, errs.Transientf("insert message: %v", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET updated_at=$2 WHERE id=$1`, conversationID, msg.SentAt); err != nil {
		return models.Message{}, errs.Transientf("bump conversation: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, errs.Transientf("commit: %v", err)
	}
	return msg, nil
}

// History returns a page of messages newest-first. beforeSeq of zero means
// "from the newest"; otherwise only messages with seq < beforeSeq are
// returned.
func (r *MessageRepo) History(ctx context.Context, conversationID string, beforeSeq int64, limit int) ([]models.Message, error) {
	var msgs []models.Message
	var err error
	if beforeSeq > 0 {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
            WHERE conversation_id=$1 AND seq < $2 ORDER BY seq DESC LIMIT $3`, conversationID, beforeSeq, limit)
	} else {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
            WHERE conversation_id=$1 ORDER BY seq DESC LIMIT $2`, conversationID, limit)
	}
	if err != nil {
		return nil, errs.Transientf("load history: %v", err)
	}
	return msgs, nil
}

// Since returns messages with seq > afterSeq, oldest-first, in append order.
func (r *MessageRepo) Since(ctx context.Context, conversationID string, afterSeq int64) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE conversation_id=$1 AND seq > $2 ORDER BY seq ASC`, conversationID, afterSeq)
	if err != nil {
		return nil, errs.Transientf("load since cursor: %v", err)
	}
	return msgs, nil
}

// Get fetches one message by its position in the conversation.
func (r *MessageRepo) Get(ctx context.Context, conversationID string, seq int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 AND seq=$2`, conversationID, seq)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, errs.NotFoundf("message %d in conversation %s", seq, conversationID)
	}
	if err != nil {
		return models.Message{}, errs.Transientf("get message: %v", err)
	}
	return msg, nil
}

// LatestByConversation returns the newest message per conversation for list
// previews, in a single query.
func (r *MessageRepo) LatestByConversation(ctx context.Context, conversationIDs []string) (map[string]models.Message, error) {
	if len(conversationIDs) == 0 {
		return map[string]models.Message{}, nil
	}
	query, args, err := sqlx.In(`SELECT DISTINCT ON (conversation_id) `+messageColumns+` FROM messages
        WHERE conversation_id IN (?) ORDER BY conversation_id, seq DESC`, conversationIDs)
	if err != nil {
		return nil, errs.Transientf("build preview query: %v", err)
	}
	query = r.db.Rebind(query)

	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, errs.Transientf("load previews: %v", err)
	}
	latest := make(map[string]models.Message, len(msgs))
	for _, m := range msgs {
		latest[m.ConversationID] = m
	}
	return latest, nil
}

// UpdateContent replaces a message's content and sets the edited flag.
// Only the original sender's row matches.
func (r *MessageRepo) UpdateContent(ctx context.Context, conversationID string, seq int64, senderID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET content=$4, edited=TRUE
        WHERE conversation_id=$1 AND seq=$2 AND sender_id=$3
        RETURNING `+messageColumns, conversationID, seq, senderID, content).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, errs.NotFoundf("editable message %d in conversation %s", seq, conversationID)
	}
	if err != nil {
		return models.Message{}, errs.Transientf("update message: %v", err)
	}
	return msg, nil
}
