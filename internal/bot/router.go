// Package bot содержит диалоговый слой: разбор команд и нажатий кнопок,
// тексты и клавиатуры, ограничение частоты платёжных запросов. Слой не
// трогает хранилище и шлюз напрямую, вся бизнес-логика за интерфейсом
// менеджера подписок.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/gateway"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/services/subscription"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage"
	"github.com/magabrotheeeer/premium-access-bot/internal/telegram"
)

// Subscriptions определяет операции менеджера подписок, нужные роутеру.
type Subscriptions interface {
	RegisterUser(ctx context.Context, id int64, firstName, username string) error
	StartPurchase(ctx context.Context, userID int64, planID string) (*gateway.PaymentLink, models.Plan, error)
	VerifyAndActivate(ctx context.Context, userID int64, txRef string) subscription.Activation
	Status(ctx context.Context, userID int64) (*models.User, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Messenger определяет операции Bot API, нужные роутеру.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Router сопоставляет входящие обновления обработчикам.
type Router struct {
	subs        Subscriptions
	messenger   Messenger
	limiter     *RateLimiter
	channelLink string
	adminID     string
	log         *slog.Logger
}

// New создает новый экземпляр Router.
func New(subs Subscriptions, messenger Messenger, channelLink, adminID string, log *slog.Logger) *Router {
	return &Router{
		subs:        subs,
		messenger:   messenger,
		limiter:     NewRateLimiter(),
		channelLink: channelLink,
		adminID:     adminID,
		log:         log,
	}
}

// HandleUpdate обрабатывает одно обновление long poll-а. Ошибки отправки
// логируются и не возвращаются: обновление считается обработанным, очередь
// не должна застревать из-за одного пользователя.
func (r *Router) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		r.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *telegram.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/start", "/help":
		r.handleStart(ctx, msg)
	case "/status":
		r.handleStatus(ctx, msg)
	case "/stats":
		r.handleStats(ctx, msg)
	}
}

func (r *Router) handleStart(ctx context.Context, msg *telegram.Message) {
	if err := r.subs.RegisterUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.Username); err != nil {
		// Приветствие показываем в любом случае
		r.log.Error("failed to register user", slog.Int64("user_id", msg.From.ID), sl.Err(err))
	}
	r.send(ctx, msg.Chat.ID, welcomeText(msg.From.FirstName), mainMenuKeyboard())
}

func (r *Router) handleStatus(ctx context.Context, msg *telegram.Message) {
	user, err := r.subs.Status(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			r.send(ctx, msg.Chat.ID, unknownUserText, nil)
			return
		}
		r.log.Error("failed to load subscription status", slog.Int64("user_id", msg.From.ID), sl.Err(err))
		r.send(ctx, msg.Chat.ID, "❌ Error checking subscription status. Please try again later.", supportKeyboard())
		return
	}

	if user.IsEntitled && user.PeriodEnd != nil {
		r.send(ctx, msg.Chat.ID, statusActiveText(user, r.channelLink, time.Now()), channelKeyboard(r.channelLink))
		return
	}
	r.send(ctx, msg.Chat.ID, statusFreeText, upgradeKeyboard())
}

func (r *Router) handleStats(ctx context.Context, msg *telegram.Message) {
	if r.adminID == "" || strconv.FormatInt(msg.From.ID, 10) != r.adminID {
		r.send(ctx, msg.Chat.ID, "❌ You don't have permission to use this command.", nil)
		return
	}

	stats, err := r.subs.Stats(ctx)
	if err != nil {
		r.log.Error("failed to collect stats", sl.Err(err))
		r.send(ctx, msg.Chat.ID, "❌ Error retrieving statistics.", nil)
		return
	}
	r.send(ctx, msg.Chat.ID, statsText(stats, time.Now()), nil)
}

func (r *Router) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	action := ParseAction(query.Data)
	if action.Kind == ActionUnknown {
		r.log.Warn("unknown callback action",
			slog.Int64("user_id", query.From.ID), slog.String("data", query.Data))
		r.answer(ctx, query.ID, "❌ Unknown action.")
		return
	}
	r.answer(ctx, query.ID, "")

	// Без исходного сообщения редактировать нечего
	if query.Message == nil {
		return
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	userID := query.From.ID

	switch action.Kind {
	case ActionUpgrade:
		r.showPlans(ctx, chatID, messageID, userID)
	case ActionSelectPlan:
		r.startPurchase(ctx, chatID, messageID, userID, action.Arg)
	case ActionVerify:
		r.verifyPayment(ctx, chatID, messageID, userID, action.Arg)
	case ActionLearnMore:
		r.edit(ctx, chatID, messageID, learnMoreText, learnMoreKeyboard())
	case ActionSupport:
		r.edit(ctx, chatID, messageID, supportText, backToMenuKeyboard())
	case ActionBackToMenu:
		r.edit(ctx, chatID, messageID, welcomeText(query.From.FirstName), mainMenuKeyboard())
	}
}

func (r *Router) showPlans(ctx context.Context, chatID, messageID, userID int64) {
	user, err := r.subs.Status(ctx, userID)
	if err == nil && user.IsEntitled && user.PeriodEnd != nil {
		r.edit(ctx, chatID, messageID, alreadyActiveText(user), backToMenuKeyboard())
		return
	}
	r.edit(ctx, chatID, messageID, upgradeText, planKeyboard())
}

func (r *Router) startPurchase(ctx context.Context, chatID, messageID, userID int64, planID string) {
	if !r.limiter.Allow(userID) {
		r.edit(ctx, chatID, messageID, rateLimitedText, backToPlansKeyboard())
		return
	}

	link, plan, err := r.subs.StartPurchase(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, subscription.ErrUnknownPlan) {
			r.edit(ctx, chatID, messageID, "❌ Invalid plan selected. Please try again.", backToPlansKeyboard())
			return
		}
		r.edit(ctx, chatID, messageID,
			"❌ An error occurred. Please try again later or contact support.", backToPlansKeyboard())
		return
	}

	r.edit(ctx, chatID, messageID, paymentDetailsText(plan), paymentKeyboard(link.URL, link.TxRef))
}

func (r *Router) verifyPayment(ctx context.Context, chatID, messageID, userID int64, txRef string) {
	result := r.subs.VerifyAndActivate(ctx, userID, txRef)

	switch result.Status {
	case subscription.ActivationCompleted:
		r.edit(ctx, chatID, messageID,
			activationSuccessText(result.Plan, result.PeriodEnd, r.channelLink), channelKeyboard(r.channelLink))
	case subscription.ActivationAlreadyActive:
		r.edit(ctx, chatID, messageID, alreadyProcessedText, channelKeyboard(r.channelLink))
	case subscription.ActivationNotFound:
		r.edit(ctx, chatID, messageID, paymentNotFoundText, supportKeyboard())
	case subscription.ActivationFailed:
		r.edit(ctx, chatID, messageID, paymentFailedText, upgradeKeyboard())
	case subscription.ActivationUnknownPlan:
		r.edit(ctx, chatID, messageID, contactSupportText(txRef), supportKeyboard())
	default:
		// Pending либо временный сбой верификации: предлагаем повторить
		r.edit(ctx, chatID, messageID, verifyPendingText(), retryVerifyKeyboard(txRef))
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if err := r.messenger.SendMessage(ctx, chatID, text, keyboard); err != nil {
		r.log.Error("failed to send message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

func (r *Router) edit(ctx context.Context, chatID, messageID int64, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if err := r.messenger.EditMessageText(ctx, chatID, messageID, text, keyboard); err != nil {
		r.log.Error("failed to edit message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string) {
	if err := r.messenger.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		r.log.Error("failed to answer callback", slog.String("callback_id", callbackID), sl.Err(err))
	}
}
