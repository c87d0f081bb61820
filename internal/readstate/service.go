package readstate

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
)

// Service owns read cursors and the unread counts derived from them, plus
// the viewer-scoped pinned/muted flags. Cursors only ever move forward.
type Service struct {
	convRepo   repositories.ConversationRepository
	cursorRepo repositories.ReadCursorRepository
	cache      *unreadCache
}

// NewService builds a read-state Service. rdb may be nil; unread counts are
// then always computed from the store.
func NewService(convRepo repositories.ConversationRepository, cursorRepo repositories.ReadCursorRepository, rdb redis.UniversalClient) *Service {
	return &Service{
		convRepo:   convRepo,
		cursorRepo: cursorRepo,
		cache:      newUnreadCache(rdb),
	}
}

// MarkRead records that the viewer has seen everything up to and including
// uptoSeq. A position at or behind the stored cursor is a no-op, not an
// error, so late or duplicate calls cannot move the cursor backward.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID string, uptoSeq int64) error {
	if uptoSeq < 0 {
		return errs.InvalidArgumentf("cursor position must not be negative")
	}
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return err
	}

	if _, err := s.cursorRepo.Advance(ctx, conversationID, userID, uptoSeq); err != nil {
		return err
	}
	s.cache.invalidate(ctx, conversationID, []string{userID})
	return nil
}

// UnreadCount returns how many messages past the viewer's cursor were sent
// by others. Pure derived read; served from cache when possible.
func (s *Service) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	if count, ok := s.cache.get(ctx, conversationID, userID); ok {
		return count, nil
	}
	count, err := s.cursorRepo.UnreadCount(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	s.cache.set(ctx, conversationID, userID, count)
	return count, nil
}

// Cursor returns the viewer's read cursor and flags.
func (s *Service) Cursor(ctx context.Context, conversationID, userID string) (models.ReadCursor, error) {
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return models.ReadCursor{}, err
	}
	return s.cursorRepo.Get(ctx, conversationID, userID)
}

// SetFlags updates the viewer's pinned/muted flags; nil leaves a flag as is.
func (s *Service) SetFlags(ctx context.Context, conversationID, userID string, pinned, muted *bool) error {
	if pinned == nil && muted == nil {
		return errs.InvalidArgumentf("no flags to update")
	}
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.cursorRepo.SetFlags(ctx, conversationID, userID, pinned, muted)
}

// InvalidateUnread drops cached unread counts for the given viewers. Called
// by the message log after an accepted append.
func (s *Service) InvalidateUnread(ctx context.Context, conversationID string, userIDs []string) {
	s.cache.invalidate(ctx, conversationID, userIDs)
}

func (s *Service) requireMember(ctx context.Context, conversationID, userID string) error {
	member, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !member {
		return errs.Forbiddenf("user %s is not a member of %s", userID, conversationID)
	}
	return nil
}
