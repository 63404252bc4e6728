// Package sweeper содержит фоновую очистку просроченных подписок: раз в
// час находит пользователей с истёкшим периодом, отзывает доступ,
// уведомляет и удаляет их из закрытого канала.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/telegram"
)

const (
	// warmup — пауза перед первым проходом, чтобы бот успел подняться.
	warmup = 10 * time.Second

	defaultInterval = time.Hour
)

// Repository определяет методы хранилища, нужные очистке.
type Repository interface {
	ListExpired(ctx context.Context, now time.Time) ([]int64, error)
	RevokeEntitlement(ctx context.Context, id int64) error
}

// Messenger определяет операции Bot API, нужные очистке: уведомление
// и кик из канала.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	BanChatMember(ctx context.Context, chatID string, userID int64) error
	UnbanChatMember(ctx context.Context, chatID string, userID int64) error
}

// Sweeper периодически отзывает истёкшие подписки.
type Sweeper struct {
	repo      Repository
	messenger Messenger
	channelID string
	interval  time.Duration
	log       *slog.Logger
}

// New создает новый экземпляр Sweeper. При interval <= 0 используется час.
func New(repo Repository, messenger Messenger, channelID string, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{
		repo:      repo,
		messenger: messenger,
		channelID: channelID,
		interval:  interval,
		log:       log,
	}
}

// Run блокирует до отмены контекста: первый проход после короткого
// прогрева, дальше по тикеру.
func (s *Sweeper) Run(ctx context.Context) {
	timer := time.NewTimer(warmup)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep обрабатывает один цикл очистки. Ошибка по одному пользователю не
// прерывает обработку остальных: недоделанного подхватит следующий цикл.
func (s *Sweeper) sweep(ctx context.Context) {
	ids, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to list expired subscriptions", sl.Err(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	s.log.Info("expired subscriptions found", slog.Int("count", len(ids)))

	for _, id := range ids {
		if err := s.repo.RevokeEntitlement(ctx, id); err != nil {
			s.log.Error("failed to revoke entitlement", slog.Int64("user_id", id), sl.Err(err))
			continue
		}

		// Уведомление некритично, кик делаем в любом случае
		if err := s.messenger.SendMessage(ctx, id, expiredText, renewKeyboard()); err != nil {
			s.log.Warn("failed to notify expired user", slog.Int64("user_id", id), sl.Err(err))
		}

		if err := s.messenger.BanChatMember(ctx, s.channelID, id); err != nil {
			s.log.Error("failed to remove user from channel", slog.Int64("user_id", id), sl.Err(err))
			continue
		}
		// Снятие бана оставляет постоянную инвайт-ссылку рабочей
		if err := s.messenger.UnbanChatMember(ctx, s.channelID, id); err != nil {
			s.log.Error("failed to lift channel ban", slog.Int64("user_id", id), sl.Err(err))
			continue
		}

		s.log.Info("expired subscription revoked", slog.Int64("user_id", id))
	}
}

const expiredText = "⏰ *Subscription Expired*\n\n" +
	"Your premium access has ended. Renew now to keep enjoying exclusive content!"

// renewKeyboard ведёт обратно в меню тарифов; callback совпадает с
// действием кнопки Upgrade главного меню.
func renewKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🔄 Renew Subscription", CallbackData: "upgrade"}},
	}}
}
