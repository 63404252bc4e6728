// Package models содержит доменные структуры: пользователя, платёж
// и тарифный план. Структуры используются в бизнес-логике и при работе
// с хранилищем.
package models

import "time"

// User представляет пользователя бота. Поля Plan, PeriodStart и PeriodEnd
// заполнены только у пользователей с оформленной подпиской: PeriodStart и
// PeriodEnd всегда выставляются парой. IsEntitled == true означает, что
// на момент последней записи доступ был активен и PeriodEnd в будущем.
// Единственный, кто меняет IsEntitled — менеджер подписок.
type User struct {
	ID          int64      // Telegram ID пользователя
	FirstName   string     // Отображаемое имя
	Username    string     // @username, может быть пустым
	Plan        string     // Идентификатор тарифа, пустая строка — нет подписки
	PeriodStart *time.Time // Начало оплаченного периода
	PeriodEnd   *time.Time // Конец оплаченного периода
	IsEntitled  bool       // Активен ли доступ к каналу
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
