package syncer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/observability"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
)

const tracerName = "edura-messaging/syncer"

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Service serves the two read shapes of the sync protocol: paged history
// for initial load and since-cursor batches for the polling loop. Both are
// pure reads of store state: calling them twice with the same cursor and no
// intervening append returns identical results.
type Service struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
}

// NewService builds a sync Service.
func NewService(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository) *Service {
	return &Service{convRepo: convRepo, msgRepo: msgRepo}
}

// History returns a page of messages newest-first, for initial load of a
// conversation view. beforeSeq of zero starts at the newest message.
func (s *Service) History(ctx context.Context, conversationID, userID string, beforeSeq int64, limit int) ([]models.Message, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "syncer.history")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.msgRepo.History(ctx, conversationID, beforeSeq, limit)
}

// SinceCursor returns messages past afterSeq, oldest-first in append order,
// possibly empty. The server never reorders; clients replay in this order.
func (s *Service) SinceCursor(ctx context.Context, conversationID, userID string, afterSeq int64) ([]models.Message, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "syncer.since_cursor")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.Int64("sync.after_seq", afterSeq),
	)

	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	batch, err := s.msgRepo.Since(ctx, conversationID, afterSeq)
	if err != nil {
		observability.IncSyncError()
		return nil, err
	}
	observability.ObserveSyncBatch(len(batch))
	return batch, nil
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
