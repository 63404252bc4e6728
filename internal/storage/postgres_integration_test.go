package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// setupPostgres поднимает контейнер PostgreSQL и возвращает хранилище.
// Тест требует docker, поэтому запускается только при
// TEST_POSTGRES_INTEGRATION=1.
func setupPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("TEST_POSTGRES_INTEGRATION") != "1" {
		t.Skip("set TEST_POSTGRES_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(pgContainer)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := OpenPostgres(connStr, newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestPostgres_PaymentLifecycle(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertUser(ctx, 500, "Carol", "carol"))
	require.NoError(t, s.RecordPayment(ctx, 500, "pg-ref-1", 500, "weekly"))

	// Дубликат tx_ref отбивается ограничением уникальности
	err := s.RecordPayment(ctx, 500, "pg-ref-1", 500, "weekly")
	assert.ErrorIs(t, err, ErrDuplicateReference)

	require.NoError(t, s.UpdatePaymentStatus(ctx, "pg-ref-1", models.PaymentCompleted))
	require.NoError(t, s.SetEntitlement(ctx, 500, "weekly", now, now.Add(7*24*time.Hour)))

	u, err := s.GetUser(ctx, 500)
	require.NoError(t, err)
	assert.True(t, u.IsEntitled)
	assert.Equal(t, "weekly", u.Plan)

	err = s.UpdatePaymentStatus(ctx, "pg-ref-1", models.PaymentFailed)
	assert.ErrorIs(t, err, ErrPaymentSettled)
}

func TestPostgres_ExpirySweepQuery(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertUser(ctx, 600, "Expired", "ex"))
	require.NoError(t, s.SetEntitlement(ctx, 600, "daily", now.Add(-25*time.Hour), now.Add(-time.Second)))
	require.NoError(t, s.UpsertUser(ctx, 601, "Active", "ac"))
	require.NoError(t, s.SetEntitlement(ctx, 601, "monthly", now, now.Add(30*24*time.Hour)))

	expired, err := s.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{600}, expired)

	require.NoError(t, s.RevokeEntitlement(ctx, 600))
	expired, err = s.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)
}
