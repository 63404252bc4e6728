// Package app собирает бота из частей: хранилище, платёжный шлюз, клиент
// Bot API, менеджер подписок, диалоговый роутер, фоновая очистка и
// HTTP-сервер проверки живости.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/premium-access-bot/internal/bot"
	"github.com/magabrotheeeer/premium-access-bot/internal/config"
	"github.com/magabrotheeeer/premium-access-bot/internal/gateway"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/subscription"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/sweeper"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage"
	"github.com/magabrotheeeer/premium-access-bot/internal/telegram"
)

// retryDelay — пауза перед повтором long poll после ошибки сети.
const retryDelay = 5 * time.Second

// App держит собранные компоненты бота.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	tg      *telegram.Client
	router  *bot.Router
	sweeper *sweeper.Sweeper
}

// New создает новый экземпляр App: открывает хранилище и связывает
// компоненты. Сетевых вызовов к Telegram и Flutterwave здесь нет.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewClient(cfg.FlutterwaveSecretKey, cfg.FlutterwavePublicKey)
	tg := telegram.NewClient(cfg.BotToken)

	subscriptionService := subscription.New(db, gw, logger)
	router := bot.New(subscriptionService, tg, cfg.PremiumChannelLink, cfg.AdminUserID, logger)
	sweep := sweeper.New(db, tg, cfg.PremiumChannelID, time.Hour, logger)

	mux := chi.NewRouter()
	registerRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		tg:      tg,
		router:  router,
		sweeper: sweep,
	}, nil
}

// Run запускает long poll, фоновую очистку и HTTP-сервер, блокирует до
// отмены контекста либо падения сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go a.sweeper.Run(ctx)
	go a.poll(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return err
	}
}

// poll крутит long poll Bot API. Обновления обрабатываются по одному и в
// порядке прихода; offset сдвигается только после обработки, поэтому при
// падении между итерациями Telegram повторит недоставленное.
func (a *App) poll(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := a.tg.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Error("failed to fetch updates", sl.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, update := range updates {
			a.router.HandleUpdate(ctx, update)
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
		}
	}
}
