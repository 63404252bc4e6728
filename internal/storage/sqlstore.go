package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// Storage инкапсулирует соединение с базой данных и реализует операции
// над пользователями и платежами. Конкретный бэкенд задаётся диалектом
// при открытии.
type Storage struct {
	DB  *sql.DB
	d   dialect
	log *slog.Logger
}

// initializeSchema создаёт таблицы и индексы, если их ещё нет. Схема
// общая для обоих бэкендов, различается только колонка автоинкремента.
func initializeSchema(db *sql.DB, d dialect) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id BIGINT PRIMARY KEY,
            first_name TEXT NOT NULL DEFAULT '',
            username TEXT NOT NULL DEFAULT '',
            plan TEXT NOT NULL DEFAULT '',
            period_start BIGINT,
            period_end BIGINT,
            is_entitled INTEGER NOT NULL DEFAULT 0,
            created_at BIGINT NOT NULL,
            updated_at BIGINT NOT NULL
        )`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS payments (
            id %s,
            user_id BIGINT NOT NULL,
            tx_ref TEXT NOT NULL UNIQUE,
            amount BIGINT NOT NULL,
            plan TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at BIGINT NOT NULL,
            updated_at BIGINT NOT NULL
        )`, d.serialPrimaryKey),
		`CREATE INDEX IF NOT EXISTS idx_users_entitled_end ON users (is_entitled, period_end)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// UpsertUser добавляет пользователя или обновляет его отображаемые поля.
// Поля подписки не трогает никогда. Операция идемпотентна.
func (s *Storage) UpsertUser(ctx context.Context, id int64, firstName, username string) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now().Unix()
	query := s.d.rebind(`INSERT INTO users (user_id, first_name, username, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT (user_id) DO UPDATE SET
			      first_name = excluded.first_name,
			      username = excluded.username,
			      updated_at = excluded.updated_at`)
	if _, err := s.DB.ExecContext(ctx, query, id, firstName, username, now, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по ID либо ErrUserNotFound.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`SELECT user_id, first_name, username, plan, period_start, period_end,
			      is_entitled, created_at, updated_at
			  FROM users
			  WHERE user_id = ?`)
	u := &models.User{}
	var periodStart, periodEnd sql.NullInt64
	var isEntitled, createdAt, updatedAt int64
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.FirstName, &u.Username,
		&u.Plan, &periodStart, &periodEnd, &isEntitled, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if periodStart.Valid {
		t := time.Unix(periodStart.Int64, 0).UTC()
		u.PeriodStart = &t
	}
	if periodEnd.Valid {
		t := time.Unix(periodEnd.Int64, 0).UTC()
		u.PeriodEnd = &t
	}
	u.IsEntitled = isEntitled != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return u, nil
}

// SetEntitlement включает доступ: выставляет тариф, границы периода и
// is_entitled. Пользователь должен быть заранее создан через UpsertUser —
// это контракт вызывающей стороны, при его нарушении возвращается
// ErrUserNotFound. Повторное применение тех же дат безвредно.
func (s *Storage) SetEntitlement(ctx context.Context, id int64, plan string, start, end time.Time) error {
	const op = "storage.SetEntitlement"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`UPDATE users
			  SET plan = ?, period_start = ?, period_end = ?, is_entitled = 1, updated_at = ?
			  WHERE user_id = ?`)
	result, err := s.DB.ExecContext(ctx, query, plan, start.Unix(), end.Unix(), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// RevokeEntitlement отключает доступ и сбрасывает тариф. Границы периода
// остаются как исторический след.
func (s *Storage) RevokeEntitlement(ctx context.Context, id int64) error {
	const op = "storage.RevokeEntitlement"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`UPDATE users
			  SET is_entitled = 0, plan = '', updated_at = ?
			  WHERE user_id = ?`)
	result, err := s.DB.ExecContext(ctx, query, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ListExpired возвращает ID пользователей с активным доступом и истёкшим
// периодом. Один SELECT — снимок согласован в пределах оператора.
func (s *Storage) ListExpired(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "storage.ListExpired"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`SELECT user_id FROM users
			  WHERE is_entitled = 1 AND period_end IS NOT NULL AND period_end < ?`)
	rows, err := s.DB.QueryContext(ctx, query, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RecordPayment вставляет новый платёж в статусе pending. Уникальность
// tx_ref обеспечивается ограничением в базе, повтор даёт
// ErrDuplicateReference.
func (s *Storage) RecordPayment(ctx context.Context, userID int64, txRef string, amount int64, plan string) error {
	const op = "storage.RecordPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now().Unix()
	query := s.d.rebind(`INSERT INTO payments (user_id, tx_ref, amount, plan, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, 'pending', ?, ?)`)
	if _, err := s.DB.ExecContext(ctx, query, userID, txRef, amount, plan, now, now); err != nil {
		if s.d.isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicateReference)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPayment возвращает платёж по tx_ref либо ErrPaymentNotFound.
func (s *Storage) GetPayment(ctx context.Context, txRef string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`SELECT id, user_id, tx_ref, amount, plan, status, created_at, updated_at
			  FROM payments
			  WHERE tx_ref = ?`)
	p := &models.Payment{}
	var status string
	var createdAt, updatedAt int64
	err := s.DB.QueryRowContext(ctx, query, txRef).Scan(&p.ID, &p.UserID, &p.TxRef,
		&p.Amount, &p.Plan, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Status = models.PaymentStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}

// UpdatePaymentStatus переводит платёж в новый статус. Переход разрешён
// только из pending: повторная установка уже достигнутого статуса — no-op,
// попытка увести платёж из финального статуса даёт ErrPaymentSettled,
// неизвестный tx_ref — ErrPaymentNotFound.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, txRef string, status models.PaymentStatus) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.d.rebind(`UPDATE payments
			  SET status = ?, updated_at = ?
			  WHERE tx_ref = ? AND status = 'pending'`)
	result, err := s.DB.ExecContext(ctx, query, string(status), time.Now().Unix(), txRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return nil
	}

	current, err := s.GetPayment(ctx, txRef)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if current.Status == status {
		return nil
	}
	return fmt.Errorf("%s: %w", op, ErrPaymentSettled)
}

// GetStats собирает агрегаты для админской команды.
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	const op = "storage.GetStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var stats Stats
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_entitled = 1`).Scan(&stats.EntitledUsers); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed'`).Scan(&stats.RevenueKobo); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	dayAgo := time.Now().Add(-24 * time.Hour).Unix()
	query := s.d.rebind(`SELECT COUNT(*) FROM payments WHERE status = 'completed' AND updated_at > ?`)
	if err := s.DB.QueryRowContext(ctx, query, dayAgo).Scan(&stats.RecentPayments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}

// Close закрывает соединение с базой.
func (s *Storage) Close() error {
	return s.DB.Close()
}
