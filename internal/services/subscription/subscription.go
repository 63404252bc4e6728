// Package subscription содержит бизнес-логику жизненного цикла подписки:
// регистрацию пользователя, покупку тарифа, верификацию оплаты с выдачей
// доступа и отзыв доступа. Сервис — единственный, кто переключает
// is_entitled; хранилище и шлюз он видит через узкие интерфейсы.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/gateway"
	"github.com/magabrotheeeer/premium-access-bot/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage"
)

// ErrUnknownPlan — выбранный тариф отсутствует в каталоге.
var ErrUnknownPlan = errors.New("unknown plan")

// Repository определяет методы хранилища, нужные менеджеру подписок.
type Repository interface {
	UpsertUser(ctx context.Context, id int64, firstName, username string) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetEntitlement(ctx context.Context, id int64, plan string, start, end time.Time) error
	RevokeEntitlement(ctx context.Context, id int64) error
	RecordPayment(ctx context.Context, userID int64, txRef string, amount int64, plan string) error
	GetPayment(ctx context.Context, txRef string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, txRef string, status models.PaymentStatus) error
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// Gateway определяет операции платёжного шлюза.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, userID int64, plan models.Plan) (*gateway.PaymentLink, error)
	VerifyPayment(ctx context.Context, txRef string) (*gateway.VerificationResult, error)
}

// ActivationStatus — исход попытки верификации для показа пользователю.
type ActivationStatus int

const (
	// ActivationCompleted — оплата подтверждена, доступ выдан.
	ActivationCompleted ActivationStatus = iota
	// ActivationAlreadyActive — платёж уже был обработан ранее.
	ActivationAlreadyActive
	// ActivationPending — шлюз ещё не видит оплату, можно проверить позже.
	ActivationPending
	// ActivationFailed — оплата не прошла, нужна новая попытка с новым tx_ref.
	ActivationFailed
	// ActivationNotFound — платёж не найден или принадлежит другому пользователю.
	ActivationNotFound
	// ActivationUnknownPlan — в платеже сохранён тариф, которого больше нет
	// в каталоге; пользователя отправляем в поддержку.
	ActivationUnknownPlan
	// ActivationError — верификация недоступна либо запись доступа не удалась.
	ActivationError
)

// Activation — результат VerifyAndActivate. Plan и PeriodEnd заполнены
// при ActivationCompleted.
type Activation struct {
	Status    ActivationStatus
	Plan      models.Plan
	PeriodEnd time.Time
}

// Service реализует машину состояний подписки.
type Service struct {
	repo Repository
	gw   Gateway
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, gw Gateway, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		gw:   gw,
		log:  log,
	}
}

// RegisterUser — переход Anonymous -> Known при первом контакте.
// Идемпотентен, повтор обновляет только отображаемые поля.
func (s *Service) RegisterUser(ctx context.Context, id int64, firstName, username string) error {
	if err := s.repo.UpsertUser(ctx, id, firstName, username); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// StartPurchase — переход Known -> PaymentPending: создаёт платёжную
// страницу и записывает платёж в pending. При ошибке шлюза состояние не
// меняется, пользователю предлагается повторить.
func (s *Service) StartPurchase(ctx context.Context, userID int64, planID string) (*gateway.PaymentLink, models.Plan, error) {
	plan, ok := plans.Find(planID)
	if !ok {
		return nil, models.Plan{}, fmt.Errorf("plan %q: %w", planID, ErrUnknownPlan)
	}

	link, err := s.gw.CreatePaymentLink(ctx, userID, plan)
	if err != nil {
		s.log.Error("failed to create payment link",
			slog.Int64("user_id", userID), slog.String("plan", planID), sl.Err(err))
		return nil, models.Plan{}, err
	}

	if err := s.repo.RecordPayment(ctx, userID, link.TxRef, plan.Amount, plan.ID); err != nil {
		s.log.Error("failed to record payment",
			slog.Int64("user_id", userID), slog.String("tx_ref", link.TxRef), sl.Err(err))
		return nil, models.Plan{}, err
	}

	s.log.Info("payment link created",
		slog.Int64("user_id", userID), slog.String("plan", planID), slog.String("tx_ref", link.TxRef))
	return link, plan, nil
}

// VerifyAndActivate — переход PaymentPending -> Entitled. Допускает
// повторный вызов с тем же tx_ref: уже завершённый платёж отсекается до
// обращения к шлюзу, поэтому период доступа второй раз не продлевается.
func (s *Service) VerifyAndActivate(ctx context.Context, userID int64, txRef string) Activation {
	payment, err := s.repo.GetPayment(ctx, txRef)
	if err != nil {
		if !errors.Is(err, storage.ErrPaymentNotFound) {
			s.log.Error("failed to load payment", slog.String("tx_ref", txRef), sl.Err(err))
			return Activation{Status: ActivationError}
		}
		return Activation{Status: ActivationNotFound}
	}
	if payment.UserID != userID {
		s.log.Warn("payment ownership mismatch",
			slog.String("tx_ref", txRef), slog.Int64("user_id", userID))
		return Activation{Status: ActivationNotFound}
	}
	if payment.Status == models.PaymentCompleted {
		return Activation{Status: ActivationAlreadyActive}
	}

	result, err := s.gw.VerifyPayment(ctx, txRef)
	if err != nil {
		s.log.Error("payment verification failed", slog.String("tx_ref", txRef), sl.Err(err))
		return Activation{Status: ActivationError}
	}

	switch result.Outcome {
	case gateway.OutcomeSuccessful:
		return s.activate(ctx, userID, txRef, result.PlanID)
	case gateway.OutcomeFailed:
		if err := s.repo.UpdatePaymentStatus(ctx, txRef, models.PaymentFailed); err != nil {
			s.log.Error("failed to mark payment failed", slog.String("tx_ref", txRef), sl.Err(err))
		}
		return Activation{Status: ActivationFailed}
	default:
		return Activation{Status: ActivationPending}
	}
}

// activate выдаёт доступ по подтверждённой оплате.
func (s *Service) activate(ctx context.Context, userID int64, txRef, planID string) Activation {
	plan, ok := plans.Find(planID)
	if !ok {
		s.log.Error("plan from payment meta is not in catalog",
			slog.String("tx_ref", txRef), slog.String("plan", planID))
		return Activation{Status: ActivationUnknownPlan}
	}

	start := time.Now().UTC()
	end := start.Add(plan.Duration)
	if err := s.repo.SetEntitlement(ctx, userID, plan.ID, start, end); err != nil {
		s.log.Error("failed to set entitlement",
			slog.Int64("user_id", userID), slog.String("tx_ref", txRef), sl.Err(err))
		return Activation{Status: ActivationError}
	}
	if err := s.repo.UpdatePaymentStatus(ctx, txRef, models.PaymentCompleted); err != nil {
		// Доступ уже выдан, статус платежа догонит на повторной верификации
		s.log.Error("failed to mark payment completed", slog.String("tx_ref", txRef), sl.Err(err))
	}

	s.log.Info("subscription activated",
		slog.Int64("user_id", userID), slog.String("plan", plan.ID),
		slog.Time("period_end", end))
	return Activation{Status: ActivationCompleted, Plan: plan, PeriodEnd: end}
}

// Status возвращает снимок подписки пользователя. Если период уже истёк,
// доступ отзывается лениво, не дожидаясь фоновой очистки.
func (s *Service) Status(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsEntitled && user.PeriodEnd != nil && user.PeriodEnd.Before(time.Now()) {
		if err := s.repo.RevokeEntitlement(ctx, userID); err != nil {
			s.log.Error("failed to revoke expired entitlement",
				slog.Int64("user_id", userID), sl.Err(err))
		} else {
			user.IsEntitled = false
			user.Plan = ""
		}
	}
	return user, nil
}

// ExpireUser — переход Entitled -> Expired, вызывается фоновой очисткой.
func (s *Service) ExpireUser(ctx context.Context, userID int64) error {
	if err := s.repo.RevokeEntitlement(ctx, userID); err != nil {
		return fmt.Errorf("failed to expire user %d: %w", userID, err)
	}
	return nil
}

// Stats возвращает агрегаты для админской команды.
func (s *Service) Stats(ctx context.Context) (*storage.Stats, error) {
	return s.repo.GetStats(ctx)
}
