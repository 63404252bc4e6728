// Package storage реализует хранилище пользователей и платежей поверх
// database/sql. Поддерживаются два бэкенда — PostgreSQL и SQLite, выбор
// делается один раз при старте по конфигу. Все запросы написаны с
// плейсхолдерами "?" и приводятся к нужному диалекту функцией rebind,
// поэтому вызывающий код на бэкенд не завязан.
//
// Каждый метод — один атомарный SQL-оператор: многошаговых транзакций нет,
// консистентность обеспечивается на уровне отдельного запроса.
package storage

import (
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/premium-access-bot/internal/config"
)

// Ошибки хранилища, на которые реагирует бизнес-логика.
var (
	// ErrUserNotFound — пользователь с таким ID не зарегистрирован.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentNotFound — платёж с таким tx_ref не записан.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrDuplicateReference — попытка вставить платёж с уже занятым tx_ref.
	ErrDuplicateReference = errors.New("duplicate payment reference")
	// ErrPaymentSettled — попытка перевести платёж из финального статуса.
	ErrPaymentSettled = errors.New("payment already settled")
)

// Stats агрегаты для админской статистики.
type Stats struct {
	TotalUsers     int64
	EntitledUsers  int64
	RevenueKobo    int64 // Сумма завершённых платежей в кобо
	RecentPayments int64 // Завершённые платежи за последние 24 часа
}

// Open выбирает бэкенд по конфигу: PostgreSQL при заданном DATABASE_URL,
// иначе SQLite по пути DatabasePath.
func Open(cfg *config.Config, log *slog.Logger) (*Storage, error) {
	if cfg.DatabaseURL != "" {
		return OpenPostgres(cfg.DatabaseURL, log)
	}
	return OpenSQLite(cfg.DatabasePath, log)
}
