package syncer

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

func TestSinceCursorRequiresMembership(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := NewService(convRepo, msgRepo)

	convRepo.On("IsMember", mock.Anything, "conv-1", "outsider").Return(false, nil).Once()

	_, err := svc.SinceCursor(context.Background(), "conv-1", "outsider", 0)

	require.ErrorIs(t, err, errs.ErrForbidden)
	convRepo.AssertExpectations(t)
	msgRepo.AssertNotCalled(t, "Since", mock.Anything, mock.Anything, mock.Anything)
}

func TestSinceCursorReturnsBatchOldestFirst(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := NewService(convRepo, msgRepo)

	batch := []models.Message{msg(3, "c"), msg(4, "d")}
	convRepo.On("IsMember", mock.Anything, "conv-1", "user-1").Return(true, nil).Once()
	msgRepo.On("Since", mock.Anything, "conv-1", int64(2)).Return(batch, nil).Once()

	got, err := svc.SinceCursor(context.Background(), "conv-1", "user-1", 2)

	require.NoError(t, err)
	assert.Equal(t, batch, got)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestSinceCursorIsIdempotent(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := NewService(convRepo, msgRepo)

	batch := []models.Message{msg(1, "a")}
	convRepo.On("IsMember", mock.Anything, "conv-1", "user-1").Return(true, nil).Twice()
	msgRepo.On("Since", mock.Anything, "conv-1", int64(0)).Return(batch, nil).Twice()

	first, err := svc.SinceCursor(context.Background(), "conv-1", "user-1", 0)
	require.NoError(t, err)
	second, err := svc.SinceCursor(context.Background(), "conv-1", "user-1", 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	merged := Merge(Merge(View{}, first), second)
	assert.Len(t, merged.Messages, 1)
}

func TestHistoryAppliesLimitBounds(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := NewService(convRepo, msgRepo)

	convRepo.On("IsMember", mock.Anything, "conv-1", "user-1").Return(true, nil).Twice()
	msgRepo.On("History", mock.Anything, "conv-1", int64(0), defaultHistoryLimit).Return([]models.Message{}, nil).Once()
	msgRepo.On("History", mock.Anything, "conv-1", int64(0), maxHistoryLimit).Return([]models.Message{}, nil).Once()

	_, err := svc.History(context.Background(), "conv-1", "user-1", 0, 0)
	require.NoError(t, err)
	_, err = svc.History(context.Background(), "conv-1", "user-1", 0, 10000)
	require.NoError(t, err)

	msgRepo.AssertExpectations(t)
}

func TestHistoryRequiresMembership(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := NewService(convRepo, new(mocks.MessageRepositoryMock))

	convRepo.On("IsMember", mock.Anything, "conv-1", "outsider").Return(false, nil).Once()

	_, err := svc.History(context.Background(), "conv-1", "outsider", 0, 20)

	require.ErrorIs(t, err, errs.ErrForbidden)
}
