package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
	"github.com/Edura-Academy/edura-sub002/internal/userdir"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGetDirect(ctx context.Context, userA, userB string) (models.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, ownerID, title string, memberIDs []string) (models.Conversation, error) {
	args := m.Called(ctx, ownerID, title, memberIDs)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationRepositoryMock) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) ListMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error) {
	args := m.Called(ctx, conversationID)
	var members []models.ConversationMember
	if val := args.Get(0); val != nil {
		members = val.([]models.ConversationMember)
	}
	return members, args.Error(1)
}

func (m *ConversationRepositoryMock) MemberRole(ctx context.Context, conversationID, userID string) (models.MemberRole, error) {
	args := m.Called(ctx, conversationID, userID)
	var role models.MemberRole
	if val := args.Get(0); val != nil {
		role = val.(models.MemberRole)
	}
	return role, args.Error(1)
}

func (m *ConversationRepositoryMock) AddMember(ctx context.Context, conversationID, userID string, role models.MemberRole) error {
	args := m.Called(ctx, conversationID, userID, role)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) RemoveMember(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetMemberRole(ctx context.Context, conversationID, userID string, role models.MemberRole) error {
	args := m.Called(ctx, conversationID, userID, role)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) CountAdmins(ctx context.Context, conversationID string) (int, error) {
	args := m.Called(ctx, conversationID)
	return args.Int(0), args.Error(1)
}

func (m *ConversationRepositoryMock) DirectPeer(ctx context.Context, conversationID, selfID string) (string, error) {
	args := m.Called(ctx, conversationID, selfID)
	return args.String(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, conversationID, senderID, senderName, content, attachmentRef string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, senderName, content, attachmentRef)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) History(ctx context.Context, conversationID string, beforeSeq int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, beforeSeq, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Since(ctx context.Context, conversationID string, afterSeq int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, afterSeq)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, conversationID string, seq int64) (models.Message, error) {
	args := m.Called(ctx, conversationID, seq)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) LatestByConversation(ctx context.Context, conversationIDs []string) (map[string]models.Message, error) {
	args := m.Called(ctx, conversationIDs)
	var latest map[string]models.Message
	if val := args.Get(0); val != nil {
		latest = val.(map[string]models.Message)
	}
	return latest, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, conversationID string, seq int64, senderID, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, seq, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ReadCursorRepositoryMock struct {
	mock.Mock
}

func (m *ReadCursorRepositoryMock) Get(ctx context.Context, conversationID, userID string) (models.ReadCursor, error) {
	args := m.Called(ctx, conversationID, userID)
	var cur models.ReadCursor
	if val := args.Get(0); val != nil {
		cur = val.(models.ReadCursor)
	}
	return cur, args.Error(1)
}

func (m *ReadCursorRepositoryMock) Advance(ctx context.Context, conversationID, userID string, seq int64) (int64, error) {
	args := m.Called(ctx, conversationID, userID, seq)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReadCursorRepositoryMock) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Int(0), args.Error(1)
}

func (m *ReadCursorRepositoryMock) UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int, error) {
	args := m.Called(ctx, userID, conversationIDs)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

func (m *ReadCursorRepositoryMock) Flags(ctx context.Context, userID string, conversationIDs []string) (map[string]models.ReadCursor, error) {
	args := m.Called(ctx, userID, conversationIDs)
	var flags map[string]models.ReadCursor
	if val := args.Get(0); val != nil {
		flags = val.(map[string]models.ReadCursor)
	}
	return flags, args.Error(1)
}

func (m *ReadCursorRepositoryMock) SetFlags(ctx context.Context, conversationID, userID string, pinned, muted *bool) error {
	args := m.Called(ctx, conversationID, userID, pinned, muted)
	return args.Error(0)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) GetUser(ctx context.Context, id string) (userdir.Profile, error) {
	args := m.Called(ctx, id)
	var p userdir.Profile
	if val := args.Get(0); val != nil {
		p = val.(userdir.Profile)
	}
	return p, args.Error(1)
}

func (m *UserDirectoryMock) BulkUsers(ctx context.Context, ids []string) ([]userdir.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []userdir.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]userdir.Profile)
	}
	return profiles, args.Error(1)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReadCursorRepository = (*ReadCursorRepositoryMock)(nil)
var _ userdir.Directory = (*UserDirectoryMock)(nil)
