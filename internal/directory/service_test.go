package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/mocks"
	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/userdir"
)

func newTestService() (*Service, *mocks.ConversationRepositoryMock, *mocks.MessageRepositoryMock, *mocks.ReadCursorRepositoryMock, *mocks.UserDirectoryMock) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	cursorRepo := new(mocks.ReadCursorRepositoryMock)
	users := new(mocks.UserDirectoryMock)
	return NewService(convRepo, msgRepo, cursorRepo, users), convRepo, msgRepo, cursorRepo, users
}

func profile(id, name, role string) userdir.Profile {
	return userdir.Profile{ID: id, DisplayName: name, Role: role, Active: true}
}

func TestCreateOrGetDirectIsIdempotent(t *testing.T) {
	svc, convRepo, _, _, users := newTestService()

	conv := models.Conversation{ID: "conv-1", Kind: models.KindDirect}
	users.On("GetUser", mock.Anything, "guardian-1").Return(profile("guardian-1", "Ayşe", userdir.RoleGuardian), nil)
	users.On("GetUser", mock.Anything, "teacher-1").Return(profile("teacher-1", "Mehmet", userdir.RoleTeacher), nil)
	convRepo.On("CreateOrGetDirect", mock.Anything, "guardian-1", "teacher-1").Return(conv, nil).Once()
	convRepo.On("CreateOrGetDirect", mock.Anything, "teacher-1", "guardian-1").Return(conv, nil).Once()

	first, err := svc.CreateOrGetDirect(context.Background(), "guardian-1", "teacher-1")
	require.NoError(t, err)
	second, err := svc.CreateOrGetDirect(context.Background(), "teacher-1", "guardian-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestCreateOrGetDirectPolicyDeniesGuardianPair(t *testing.T) {
	svc, convRepo, _, _, users := newTestService()

	users.On("GetUser", mock.Anything, "guardian-1").Return(profile("guardian-1", "Ayşe", userdir.RoleGuardian), nil).Once()
	users.On("GetUser", mock.Anything, "guardian-2").Return(profile("guardian-2", "Fatma", userdir.RoleGuardian), nil).Once()

	_, err := svc.CreateOrGetDirect(context.Background(), "guardian-1", "guardian-2")

	require.ErrorIs(t, err, errs.ErrForbidden)
	convRepo.AssertNotCalled(t, "CreateOrGetDirect", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrGetDirectUnknownTarget(t *testing.T) {
	svc, _, _, _, users := newTestService()

	users.On("GetUser", mock.Anything, "teacher-1").Return(profile("teacher-1", "Mehmet", userdir.RoleTeacher), nil).Once()
	users.On("GetUser", mock.Anything, "ghost").Return(userdir.Profile{}, errs.NotFoundf("user ghost")).Once()

	_, err := svc.CreateOrGetDirect(context.Background(), "teacher-1", "ghost")

	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateOrGetDirectInactiveTarget(t *testing.T) {
	svc, _, _, _, users := newTestService()

	inactive := userdir.Profile{ID: "teacher-2", DisplayName: "Left School", Role: userdir.RoleTeacher, Active: false}
	users.On("GetUser", mock.Anything, "guardian-1").Return(profile("guardian-1", "Ayşe", userdir.RoleGuardian), nil).Once()
	users.On("GetUser", mock.Anything, "teacher-2").Return(inactive, nil).Once()

	_, err := svc.CreateOrGetDirect(context.Background(), "guardian-1", "teacher-2")

	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateOrGetDirectSelfTarget(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateOrGetDirect(context.Background(), "teacher-1", "teacher-1")

	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateGroup(context.Background(), "teacher-1", "  ", []string{"u2"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = svc.CreateGroup(context.Background(), "teacher-1", "Sınıf 5-A", nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestCreateGroupGuardianForbidden(t *testing.T) {
	svc, _, _, _, users := newTestService()

	users.On("GetUser", mock.Anything, "guardian-1").Return(profile("guardian-1", "Ayşe", userdir.RoleGuardian), nil).Once()

	_, err := svc.CreateGroup(context.Background(), "guardian-1", "Veli Grubu", []string{"u2"})

	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestCreateGroupUnknownMember(t *testing.T) {
	svc, _, _, _, users := newTestService()

	users.On("GetUser", mock.Anything, "teacher-1").Return(profile("teacher-1", "Mehmet", userdir.RoleTeacher), nil).Once()
	users.On("BulkUsers", mock.Anything, []string{"u2", "ghost"}).Return([]userdir.Profile{profile("u2", "Ali", userdir.RoleTeacher)}, nil).Once()

	_, err := svc.CreateGroup(context.Background(), "teacher-1", "Sınıf 5-A", []string{"u2", "ghost"})

	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateGroupSuccess(t *testing.T) {
	svc, convRepo, _, _, users := newTestService()

	conv := models.Conversation{ID: "conv-g", Kind: models.KindGroup, Title: "Sınıf 5-A"}
	users.On("GetUser", mock.Anything, "teacher-1").Return(profile("teacher-1", "Mehmet", userdir.RoleTeacher), nil).Once()
	users.On("BulkUsers", mock.Anything, []string{"u2", "u3"}).Return([]userdir.Profile{
		profile("u2", "Ali", userdir.RoleGuardian),
		profile("u3", "Veli", userdir.RoleGuardian),
	}, nil).Once()
	convRepo.On("CreateGroup", mock.Anything, "teacher-1", "Sınıf 5-A", []string{"u2", "u3"}).Return(conv, nil).Once()

	got, err := svc.CreateGroup(context.Background(), "teacher-1", "Sınıf 5-A", []string{"u2", "u3"})

	require.NoError(t, err)
	assert.Equal(t, "conv-g", got.ID)
	convRepo.AssertExpectations(t)
}

func TestListBuildsSummaries(t *testing.T) {
	svc, convRepo, msgRepo, cursorRepo, users := newTestService()

	now := time.Now()
	direct := models.Conversation{ID: "conv-d", Kind: models.KindDirect, UpdatedAt: now}
	group := models.Conversation{ID: "conv-g", Kind: models.KindGroup, Title: "Sınıf 5-A", UpdatedAt: now.Add(-time.Hour)}

	convRepo.On("ListForUser", mock.Anything, "guardian-1").Return([]models.Conversation{direct, group}, nil).Once()
	convRepo.On("DirectPeer", mock.Anything, "conv-d", "guardian-1").Return("teacher-1", nil).Once()
	users.On("BulkUsers", mock.Anything, []string{"teacher-1"}).Return([]userdir.Profile{
		{ID: "teacher-1", DisplayName: "Mehmet Hoca", Role: userdir.RoleTeacher, Active: true, Online: true},
	}, nil).Once()
	preview := models.Message{ID: "m9", ConversationID: "conv-d", Seq: 9, SenderID: "teacher-1", Content: "Merhaba"}
	msgRepo.On("LatestByConversation", mock.Anything, []string{"conv-d", "conv-g"}).Return(map[string]models.Message{"conv-d": preview}, nil).Once()
	cursorRepo.On("UnreadCounts", mock.Anything, "guardian-1", []string{"conv-d", "conv-g"}).Return(map[string]int{"conv-d": 2}, nil).Once()
	cursorRepo.On("Flags", mock.Anything, "guardian-1", []string{"conv-d", "conv-g"}).Return(map[string]models.ReadCursor{
		"conv-g": {ConversationID: "conv-g", UserID: "guardian-1", Pinned: true},
	}, nil).Once()

	summaries, err := svc.List(context.Background(), "guardian-1")

	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Pinned group sorts ahead of the more recently active direct chat.
	assert.Equal(t, "conv-g", summaries[0].ID)
	assert.True(t, summaries[0].Pinned)

	directSummary := summaries[1]
	assert.Equal(t, "Mehmet Hoca", directSummary.Title)
	assert.True(t, directSummary.PeerOnline)
	assert.Equal(t, 2, directSummary.UnreadCount)
	require.NotNil(t, directSummary.LastMessage)
	assert.Equal(t, "Merhaba", directSummary.LastMessage.Content)
}

func TestRemoveLastAdminRejected(t *testing.T) {
	svc, convRepo, _, _, _ := newTestService()

	group := models.Conversation{ID: "conv-g", Kind: models.KindGroup}
	convRepo.On("GetConversation", mock.Anything, "conv-g").Return(group, nil).Once()
	convRepo.On("MemberRole", mock.Anything, "conv-g", "admin-1").Return(models.RoleAdmin, nil).Twice()
	convRepo.On("CountAdmins", mock.Anything, "conv-g").Return(1, nil).Once()

	err := svc.RemoveMember(context.Background(), "conv-g", "admin-1", "admin-1")

	require.ErrorIs(t, err, errs.ErrInvalidState)
	convRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveMemberRequiresAdmin(t *testing.T) {
	svc, convRepo, _, _, _ := newTestService()

	group := models.Conversation{ID: "conv-g", Kind: models.KindGroup}
	convRepo.On("GetConversation", mock.Anything, "conv-g").Return(group, nil).Once()
	convRepo.On("MemberRole", mock.Anything, "conv-g", "member-1").Return(models.RoleMember, nil).Once()

	err := svc.RemoveMember(context.Background(), "conv-g", "member-1", "member-2")

	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestMembershipOfDirectConversationIsFixed(t *testing.T) {
	svc, convRepo, _, _, _ := newTestService()

	direct := models.Conversation{ID: "conv-d", Kind: models.KindDirect}
	convRepo.On("GetConversation", mock.Anything, "conv-d").Return(direct, nil).Once()

	err := svc.AddMember(context.Background(), "conv-d", "teacher-1", "u3")

	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestPromoteToAdmin(t *testing.T) {
	svc, convRepo, _, _, _ := newTestService()

	group := models.Conversation{ID: "conv-g", Kind: models.KindGroup}
	convRepo.On("GetConversation", mock.Anything, "conv-g").Return(group, nil).Once()
	convRepo.On("MemberRole", mock.Anything, "conv-g", "admin-1").Return(models.RoleAdmin, nil).Once()
	convRepo.On("MemberRole", mock.Anything, "conv-g", "member-1").Return(models.RoleMember, nil).Once()
	convRepo.On("SetMemberRole", mock.Anything, "conv-g", "member-1", models.RoleAdmin).Return(nil).Once()

	err := svc.PromoteToAdmin(context.Background(), "conv-g", "admin-1", "member-1")

	require.NoError(t, err)
	convRepo.AssertExpectations(t)
}
