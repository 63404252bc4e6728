package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// newTestStorage поднимает хранилище на SQLite во временной директории.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStorage_UpsertUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, 100, "Alice", "alice"))

	u, err := s.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.ID)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.IsEntitled)
	assert.Nil(t, u.PeriodEnd)

	// Повторный апсерт обновляет отображаемые поля и не трогает подписку
	start := time.Now().UTC().Truncate(time.Second)
	end := start.Add(7 * 24 * time.Hour)
	require.NoError(t, s.SetEntitlement(ctx, 100, "weekly", start, end))
	require.NoError(t, s.UpsertUser(ctx, 100, "Alice B", "alice_b"))

	u, err = s.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", u.FirstName)
	assert.Equal(t, "alice_b", u.Username)
	assert.True(t, u.IsEntitled)
	assert.Equal(t, "weekly", u.Plan)
	require.NotNil(t, u.PeriodEnd)
	assert.Equal(t, end.Unix(), u.PeriodEnd.Unix())
}

func TestStorage_GetUser_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUser(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_SetEntitlement_UnknownUser(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	err := s.SetEntitlement(context.Background(), 999, "daily", now, now.Add(24*time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_SetEntitlement_Reapply(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertUser(ctx, 1, "U", "u"))

	start := time.Now().UTC().Truncate(time.Second)
	end := start.Add(24 * time.Hour)
	require.NoError(t, s.SetEntitlement(ctx, 1, "daily", start, end))
	// Повторное применение тех же дат — без удвоения периода
	require.NoError(t, s.SetEntitlement(ctx, 1, "daily", start, end))

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u.PeriodEnd)
	assert.Equal(t, end.Unix(), u.PeriodEnd.Unix())
}

func TestStorage_RevokeEntitlement(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertUser(ctx, 2, "U", "u"))

	start := time.Now().UTC()
	end := start.Add(24 * time.Hour)
	require.NoError(t, s.SetEntitlement(ctx, 2, "daily", start, end))
	require.NoError(t, s.RevokeEntitlement(ctx, 2))

	u, err := s.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.False(t, u.IsEntitled)
	assert.Empty(t, u.Plan)
	// Границы периода остаются историческим следом
	require.NotNil(t, u.PeriodEnd)
	assert.Equal(t, end.Unix(), u.PeriodEnd.Unix())

	err = s.RevokeEntitlement(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_ListExpired(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Истёкший, активный и отозванный пользователи
	require.NoError(t, s.UpsertUser(ctx, 10, "Expired", "e"))
	require.NoError(t, s.SetEntitlement(ctx, 10, "daily", now.Add(-25*time.Hour), now.Add(-time.Second)))

	require.NoError(t, s.UpsertUser(ctx, 11, "Active", "a"))
	require.NoError(t, s.SetEntitlement(ctx, 11, "weekly", now, now.Add(7*24*time.Hour)))

	require.NoError(t, s.UpsertUser(ctx, 12, "Revoked", "r"))
	require.NoError(t, s.SetEntitlement(ctx, 12, "daily", now.Add(-48*time.Hour), now.Add(-24*time.Hour)))
	require.NoError(t, s.RevokeEntitlement(ctx, 12))

	expired, err := s.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, expired)
}

func TestStorage_RecordPayment_DuplicateReference(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertUser(ctx, 1, "U", "u"))

	require.NoError(t, s.RecordPayment(ctx, 1, "ref-1", 500, "weekly"))

	err := s.RecordPayment(ctx, 1, "ref-1", 500, "weekly")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateReference)

	// Повторная покупка с новым tx_ref проходит
	require.NoError(t, s.RecordPayment(ctx, 1, "ref-2", 500, "weekly"))
}

func TestStorage_GetPayment(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.RecordPayment(ctx, 7, "ref-7", 1500, "monthly"))

	p, err := s.GetPayment(ctx, "ref-7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "ref-7", p.TxRef)
	assert.Equal(t, int64(1500), p.Amount)
	assert.Equal(t, "monthly", p.Plan)
	assert.Equal(t, models.PaymentPending, p.Status)

	_, err = s.GetPayment(ctx, "no-such-ref")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestStorage_UpdatePaymentStatus_Monotonic(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.RecordPayment(ctx, 1, "ref-m", 100, "daily"))

	require.NoError(t, s.UpdatePaymentStatus(ctx, "ref-m", models.PaymentCompleted))

	p, err := s.GetPayment(ctx, "ref-m")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)

	// Повторная установка того же статуса — no-op
	require.NoError(t, s.UpdatePaymentStatus(ctx, "ref-m", models.PaymentCompleted))

	// Финальный статус назад не откатывается
	err = s.UpdatePaymentStatus(ctx, "ref-m", models.PaymentPending)
	assert.ErrorIs(t, err, ErrPaymentSettled)
	err = s.UpdatePaymentStatus(ctx, "ref-m", models.PaymentFailed)
	assert.ErrorIs(t, err, ErrPaymentSettled)

	p, err = s.GetPayment(ctx, "ref-m")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestStorage_UpdatePaymentStatus_UnknownRef(t *testing.T) {
	s := newTestStorage(t)

	err := s.UpdatePaymentStatus(context.Background(), "ghost", models.PaymentCompleted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestStorage_GetStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertUser(ctx, 1, "A", "a"))
	require.NoError(t, s.UpsertUser(ctx, 2, "B", "b"))
	require.NoError(t, s.SetEntitlement(ctx, 1, "weekly", now, now.Add(7*24*time.Hour)))

	require.NoError(t, s.RecordPayment(ctx, 1, "ref-s1", 500, "weekly"))
	require.NoError(t, s.UpdatePaymentStatus(ctx, "ref-s1", models.PaymentCompleted))
	require.NoError(t, s.RecordPayment(ctx, 2, "ref-s2", 100, "daily"))
	require.NoError(t, s.UpdatePaymentStatus(ctx, "ref-s2", models.PaymentFailed))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.EntitledUsers)
	assert.Equal(t, int64(500), stats.RevenueKobo)
	assert.Equal(t, int64(1), stats.RecentPayments)
}

func TestStorage_ContextCancelled(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.UpsertUser(ctx, 1, "U", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
