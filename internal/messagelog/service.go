package messagelog

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/observability"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
	"github.com/Edura-Academy/edura-sub002/internal/userdir"
)

const tracerName = "edura-messaging/messagelog"

// UnreadInvalidator drops cached unread counts after an append so the next
// list read recomputes them.
type UnreadInvalidator interface {
	InvalidateUnread(ctx context.Context, conversationID string, userIDs []string)
}

// Service appends messages to conversations. It is the only writer of
// messages; every accepted append is immediately visible to SinceCursor
// reads from any member.
type Service struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
	users    userdir.Directory
	unread   UnreadInvalidator
}

// NewService builds a message log Service. unread may be nil.
func NewService(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, users userdir.Directory, unread UnreadInvalidator) *Service {
	return &Service{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		users:    users,
		unread:   unread,
	}
}

// Append validates the sender and content, assigns the next position in the
// conversation and the authoritative sent-at, and returns the canonical
// stored message. Callers must treat the returned message as the source of
// truth even if their optimistic local copy differs.
func (s *Service) Append(ctx context.Context, conversationID, senderID, content, attachmentRef string) (models.Message, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "messagelog.append")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	content = strings.TrimSpace(content)
	if content == "" && attachmentRef == "" {
		return models.Message{}, errs.InvalidArgumentf("message content is empty")
	}

	conv, err := s.convRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return models.Message{}, err
	}
	member, err := s.convRepo.IsMember(ctx, conversationID, senderID)
	if err != nil {
		return models.Message{}, err
	}
	if !member {
		return models.Message{}, errs.Forbiddenf("user %s is not a member of %s", senderID, conversationID)
	}

	// Sender name is frozen into the message so history stays stable when
	// the profile is later renamed.
	sender, err := s.users.GetUser(ctx, senderID)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.msgRepo.Append(ctx, conversationID, senderID, sender.DisplayName, content, attachmentRef)
	if err != nil {
		return models.Message{}, err
	}
	observability.IncMessageAppended(string(conv.Kind))

	recipients := s.notifyRecipients(ctx, conversationID, senderID)
	_ = observability.PublishEvent(ctx, "messaging.message.created", observability.EventEnvelope{
		EventType: "messaging",
		EventName: "message.created",
		Payload: observability.MessageCreatedPayload{
			ConversationID: conversationID,
			Kind:           string(conv.Kind),
			MessageID:      msg.ID,
			Seq:            msg.Seq,
			SenderID:       senderID,
			RecipientIDs:   recipients,
		},
	})

	return msg, nil
}

// Edit replaces the content of the sender's own message and marks it edited.
func (s *Service) Edit(ctx context.Context, conversationID string, seq int64, senderID, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, errs.InvalidArgumentf("message content is empty")
	}

	member, err := s.convRepo.IsMember(ctx, conversationID, senderID)
	if err != nil {
		return models.Message{}, err
	}
	if !member {
		return models.Message{}, errs.Forbiddenf("user %s is not a member of %s", senderID, conversationID)
	}

	existing, err := s.msgRepo.Get(ctx, conversationID, seq)
	if err != nil {
		return models.Message{}, err
	}
	if existing.SenderID != senderID {
		return models.Message{}, errs.Forbiddenf("only the sender may edit a message")
	}

	return s.msgRepo.UpdateContent(ctx, conversationID, seq, senderID, content)
}

// notifyRecipients invalidates cached unread counts for the other members
// and returns their ids for the published event. Best effort: a failure
// here never fails the append.
func (s *Service) notifyRecipients(ctx context.Context, conversationID, senderID string) []string {
	members, err := s.convRepo.ListMembers(ctx, conversationID)
	if err != nil {
		return nil
	}
	recipients := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != senderID {
			recipients = append(recipients, m.UserID)
		}
	}
	if s.unread != nil {
		s.unread.InvalidateUnread(ctx, conversationID, recipients)
	}
	return recipients
}
