package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/telegram"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ListExpired(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if ids := args.Get(0); ids != nil {
		return ids.([]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) RevokeEntitlement(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error {
	args := m.Called(ctx, chatID, text, keyboard)
	return args.Error(0)
}

func (m *mockMessenger) BanChatMember(ctx context.Context, chatID string, userID int64) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *mockMessenger) UnbanChatMember(ctx context.Context, chatID string, userID int64) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func newTestSweeper(t *testing.T) (*Sweeper, *mockRepository, *mockMessenger) {
	t.Helper()
	repo := new(mockRepository)
	messenger := new(mockMessenger)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, messenger, "-100500", time.Hour, log), repo, messenger
}

func TestSweep_RevokesNotifiesAndKicks(t *testing.T) {
	s, repo, messenger := newTestSweeper(t)

	repo.On("ListExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return([]int64{10, 11}, nil)
	for _, id := range []int64{10, 11} {
		repo.On("RevokeEntitlement", mock.Anything, id).Return(nil).Once()
		messenger.On("SendMessage", mock.Anything, id, expiredText, mock.Anything).Return(nil).Once()
		messenger.On("BanChatMember", mock.Anything, "-100500", id).Return(nil).Once()
		messenger.On("UnbanChatMember", mock.Anything, "-100500", id).Return(nil).Once()
	}

	s.sweep(context.Background())

	repo.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestSweep_RevokeFailureSkipsUser(t *testing.T) {
	s, repo, messenger := newTestSweeper(t)

	repo.On("ListExpired", mock.Anything, mock.Anything).Return([]int64{10, 11}, nil)
	repo.On("RevokeEntitlement", mock.Anything, int64(10)).Return(errors.New("database is locked"))
	repo.On("RevokeEntitlement", mock.Anything, int64(11)).Return(nil)
	messenger.On("SendMessage", mock.Anything, int64(11), expiredText, mock.Anything).Return(nil)
	messenger.On("BanChatMember", mock.Anything, "-100500", int64(11)).Return(nil)
	messenger.On("UnbanChatMember", mock.Anything, "-100500", int64(11)).Return(nil)

	s.sweep(context.Background())

	// Доступ не отозван — пользователь остаётся в канале до следующего цикла
	messenger.AssertNotCalled(t, "BanChatMember", mock.Anything, "-100500", int64(10))
	repo.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestSweep_NotifyFailureStillKicks(t *testing.T) {
	s, repo, messenger := newTestSweeper(t)

	repo.On("ListExpired", mock.Anything, mock.Anything).Return([]int64{10}, nil)
	repo.On("RevokeEntitlement", mock.Anything, int64(10)).Return(nil)
	messenger.On("SendMessage", mock.Anything, int64(10), expiredText, mock.Anything).
		Return(errors.New("Forbidden: bot was blocked by the user"))
	messenger.On("BanChatMember", mock.Anything, "-100500", int64(10)).Return(nil)
	messenger.On("UnbanChatMember", mock.Anything, "-100500", int64(10)).Return(nil)

	s.sweep(context.Background())

	messenger.AssertExpectations(t)
}

func TestSweep_ListError(t *testing.T) {
	s, repo, messenger := newTestSweeper(t)

	repo.On("ListExpired", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	s.sweep(context.Background())

	repo.AssertNotCalled(t, "RevokeEntitlement", mock.Anything, mock.Anything)
	messenger.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _, _ := newTestSweeper(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "sweeper did not stop on context cancel")
	}
}
