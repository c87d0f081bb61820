package readstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/mocks"
	"github.com/Edura-Academy/edura-sub002/internal/models"
)

func newTestService() (*Service, *mocks.ConversationRepositoryMock, *mocks.ReadCursorRepositoryMock) {
	convRepo := new(mocks.ConversationRepositoryMock)
	cursorRepo := new(mocks.ReadCursorRepositoryMock)
	return NewService(convRepo, cursorRepo, nil), convRepo, cursorRepo
}

func TestMarkReadAdvancesCursor(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil).Once()
	cursorRepo.On("Advance", mock.Anything, "conv-1", "u1", int64(7)).Return(int64(7), nil).Once()

	err := svc.MarkRead(context.Background(), "conv-1", "u1", 7)

	require.NoError(t, err)
	cursorRepo.AssertExpectations(t)
}

func TestMarkReadBehindCursorIsNoop(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil).Once()
	// The store keeps the larger of the stored and requested positions.
	cursorRepo.On("Advance", mock.Anything, "conv-1", "u1", int64(3)).Return(int64(9), nil).Once()

	err := svc.MarkRead(context.Background(), "conv-1", "u1", 3)

	require.NoError(t, err)
}

func TestMarkReadRejectsNegativePosition(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	err := svc.MarkRead(context.Background(), "conv-1", "u1", -1)

	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	convRepo.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
	cursorRepo.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadRejectsNonMember(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	convRepo.On("IsMember", mock.Anything, "conv-1", "outsider").Return(false, nil).Once()

	err := svc.MarkRead(context.Background(), "conv-1", "outsider", 5)

	require.ErrorIs(t, err, errs.ErrForbidden)
	cursorRepo.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnreadCountFromStore(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil).Once()
	cursorRepo.On("UnreadCount", mock.Anything, "conv-1", "u1").Return(4, nil).Once()

	count, err := svc.UnreadCount(context.Background(), "conv-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestUnreadCountZeroAfterMarkRead(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil)
	cursorRepo.On("Advance", mock.Anything, "conv-1", "u1", int64(12)).Return(int64(12), nil).Once()
	cursorRepo.On("UnreadCount", mock.Anything, "conv-1", "u1").Return(0, nil).Once()

	require.NoError(t, svc.MarkRead(context.Background(), "conv-1", "u1", 12))

	count, err := svc.UnreadCount(context.Background(), "conv-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCursorReturnsStoredState(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	stored := models.ReadCursor{ConversationID: "conv-1", UserID: "u1", LastReadSeq: 8, Pinned: true}
	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil).Once()
	cursorRepo.On("Get", mock.Anything, "conv-1", "u1").Return(stored, nil).Once()

	cur, err := svc.Cursor(context.Background(), "conv-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, stored, cur)
}

func TestSetFlagsRequiresAtLeastOneFlag(t *testing.T) {
	svc, convRepo, _ := newTestService()

	err := svc.SetFlags(context.Background(), "conv-1", "u1", nil, nil)

	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	convRepo.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetFlagsUpdatesOnlyProvidedFlag(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	pinned := true
	convRepo.On("IsMember", mock.Anything, "conv-1", "u1").Return(true, nil).Once()
	cursorRepo.On("SetFlags", mock.Anything, "conv-1", "u1", &pinned, (*bool)(nil)).Return(nil).Once()

	err := svc.SetFlags(context.Background(), "conv-1", "u1", &pinned, nil)

	require.NoError(t, err)
	cursorRepo.AssertExpectations(t)
}

func TestSetFlagsRejectsNonMember(t *testing.T) {
	svc, convRepo, cursorRepo := newTestService()

	muted := true
	convRepo.On("IsMember", mock.Anything, "conv-1", "outsider").Return(false, nil).Once()

	err := svc.SetFlags(context.Background(), "conv-1", "outsider", nil, &muted)

	require.ErrorIs(t, err, errs.ErrForbidden)
	cursorRepo.AssertNotCalled(t, "SetFlags", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
