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

// ConversationRepository abstracts conversation and membership persistence.
// It is the only writer of conversation membership.
type ConversationRepository interface {
	CreateOrGetDirect(ctx context.Context, userA, userB string) (models.Conversation, error)
	CreateGroup(ctx context.Context, ownerID, title string, memberIDs []string) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	ListMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error)
	MemberRole(ctx context.Context, conversationID, userID string) (models.MemberRole, error)
	AddMember(ctx context.Context, conversationID, userID string, role models.MemberRole) error
	RemoveMember(ctx context.Context, conversationID, userID string) error
	SetMemberRole(ctx context.Context, conversationID, userID string, role models.MemberRole) error
	CountAdmins(ctx context.Context, conversationID string) (int, error)
	DirectPeer(ctx context.Context, conversationID, selfID string) (string, error)
}

// ConversationRepo is the sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateOrGetDirect returns the direct conversation between the pair,
// creating it if absent. The pair is normalized before lookup so argument
// order never matters; UNIQUE(low_user_id, high_user_id) backs the
// at-most-one invariant.
func (r *ConversationRepo) CreateOrGetDirect(ctx context.Context, userA, userB string) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, errs.InvalidArgumentf("cannot start a conversation with yourself")
	}
	low, high := userA, userB
	if high < low {
		low, high = high, low
	}

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT c.id, c.kind, c.title, c.created_at, c.updated_at
        FROM conversations c
        JOIN direct_pairs dp ON dp.conversation_id = c.id
        WHERE dp.low_user_id=$1 AND dp.high_user_id=$2`, low, high)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, errs.Transientf("lookup direct conversation: %v", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, errs.Transientf("begin tx: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	id := uuid.NewString()
	if err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (id, kind) VALUES ($1, 'direct')
        RETURNING id, kind, title, created_at, updated_at`, id).
		StructScan(&conv); err != nil {
		return models.Conversation{}, errs.Transientf("insert conversation: %v", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO direct_pairs (conversation_id, low_user_id, high_user_id) VALUES ($1, $2, $3)`, id, low, high); err != nil {
		return models.Conversation{}, errs.Transientf("insert direct pair: %v", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, 'member'), ($1, $3, 'member')`, id, low, high); err != nil {
		return models.Conversation{}, errs.Transientf("insert members: %v", err)
	}
	if err = tx.Commit(); err != nil {
		return models.Conversation{}, errs.Transientf("commit: %v", err)
	}
	return conv, nil
}

// CreateGroup creates a group conversation and its members atomically. The
// owner becomes the first admin; member ids are deduplicated.
func (r *ConversationRepo) CreateGroup(ctx context.Context, ownerID, title string, memberIDs []string) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, errs.Transientf("begin tx: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	if err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (id, kind, title) VALUES ($1, 'group', $2)
        RETURNING id, kind, title, created_at, updated_at`, uuid.NewString(), title).
		StructScan(&conv); err != nil {
		return models.Conversation{}, errs.Transientf("insert group: %v", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, 'admin')`, conv.ID, ownerID); err != nil {
		return models.Conversation{}, errs.Transientf("insert owner: %v", err)
	}
	seen := map[string]struct{}{ownerID: {}}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, 'member')`, conv.ID, id); err != nil {
			return models.Conversation{}, errs.Transientf("insert member: %v", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, errs.Transientf("commit: %v", err)
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, kind, title, created_at, updated_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, errs.NotFoundf("conversation %s", conversationID)
	}
	if err != nil {
		return models.Conversation{}, errs.Transientf("get conversation: %v", err)
	}
	return conv, nil
}

// ListForUser returns the user's conversations, most recent activity first,
// conversation id as the tie-break so list order is deterministic.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `SELECT c.id, c.kind, c.title, c.created_at, c.updated_at
        FROM conversations c
        JOIN conversation_members m ON m.conversation_id = c.id
        WHERE m.user_id=$1
        ORDER BY c.updated_at DESC, c.id ASC`, userID)
	if err != nil {
		return nil, errs.Transientf("list conversations: %v", err)
	}
	return convs, nil
}

// IsMember checks whether the user belongs to the conversation.
func (r *ConversationRepo) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	if err != nil {
		return false, errs.Transientf("membership check: %v", err)
	}
	return exists, nil
}

// ListMembers returns all members of the conversation.
func (r *ConversationRepo) ListMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error) {
	var members []models.ConversationMember
	err := r.db.SelectContext(ctx, &members, `SELECT conversation_id, user_id, role, joined_at FROM conversation_members WHERE conversation_id=$1 ORDER BY joined_at ASC, user_id ASC`, conversationID)
	if err != nil {
		return nil, errs.Transientf("list members: %v", err)
	}
	return members, nil
}

// MemberRole returns the user's role in the conversation, or ErrForbidden
// if they are not a member.
func (r *ConversationRepo) MemberRole(ctx context.Context, conversationID, userID string) (models.MemberRole, error) {
	var role models.MemberRole
	err := r.db.GetContext(ctx, &role, `SELECT role FROM conversation_members WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.Forbiddenf("user %s is not a member of %s", userID, conversationID)
	}
	if err != nil {
		return "", errs.Transientf("member role: %v", err)
	}
	return role, nil
}

// AddMember inserts a member; adding an existing member is a no-op.
func (r *ConversationRepo) AddMember(ctx context.Context, conversationID, userID string, role models.MemberRole) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, $3)
        ON CONFLICT (conversation_id, user_id) DO NOTHING`, conversationID, userID, role)
	if err != nil {
		return errs.Transientf("add member: %v", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *ConversationRepo) RemoveMember(ctx context.Context, conversationID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversation_members WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if err != nil {
		return errs.Transientf("remove member: %v", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errs.Transientf("remove member: %v", err)
	}
	if count == 0 {
		return errs.NotFoundf("member %s in conversation %s", userID, conversationID)
	}
	return nil
}

// SetMemberRole changes an existing member's role.
func (r *ConversationRepo) SetMemberRole(ctx context.Context, conversationID, userID string, role models.MemberRole) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversation_members SET role=$3 WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID, role)
	if err != nil {
		return errs.Transientf("set member role: %v", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errs.Transientf("set member role: %v", err)
	}
	if count == 0 {
		return errs.NotFoundf("member %s in conversation %s", userID, conversationID)
	}
	return nil
}

// CountAdmins returns the number of admins in the conversation.
func (r *ConversationRepo) CountAdmins(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM conversation_members WHERE conversation_id=$1 AND role='admin'`, conversationID)
	if err != nil {
		return 0, errs.Transientf("count admins: %v", err)
	}
	return count, nil
}

// DirectPeer returns the other participant of a direct conversation.
func (r *ConversationRepo) DirectPeer(ctx context.Context, conversationID, selfID string) (string, error) {
	var peer string
	err := r.db.GetContext(ctx, &peer, `SELECT user_id FROM conversation_members WHERE conversation_id=$1 AND user_id<>$2 LIMIT 1`, conversationID, selfID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.NotFoundf("peer in conversation %s", conversationID)
	}
	if err != nil {
		return "", errs.Transientf("direct peer: %v", err)
	}
	return peer, nil
}
