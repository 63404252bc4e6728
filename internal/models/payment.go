package models

import "time"

// PaymentStatus описывает состояние платежа. Переход только вперёд:
// pending -> completed либо pending -> failed, обратных переходов нет.
type PaymentStatus string

const (
	// PaymentPending — платёж создан, ссылка выдана, оплата не подтверждена.
	PaymentPending PaymentStatus = "pending"
	// PaymentCompleted — шлюз подтвердил успешную оплату.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentFailed — шлюз сообщил о неуспехе.
	PaymentFailed PaymentStatus = "failed"
)

// Payment представляет попытку оплаты. TxRef генерируется заново на каждую
// попытку и уникален глобально, у одного пользователя может быть много
// платежей.
type Payment struct {
	ID        int64
	UserID    int64
	TxRef     string
	Amount    int64 // Сумма в кобо, 100 кобо = 1 NGN
	Plan      string
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
