package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// pgUniqueViolation — код ошибки unique_violation в PostgreSQL.
const pgUniqueViolation = "23505"

var postgresDialect = dialect{
	name:             "postgres",
	serialPrimaryKey: "BIGSERIAL PRIMARY KEY",
	rebind:           rebindDollar,
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

// OpenPostgres создаёт подключение к PostgreSQL и инициализирует схему.
func OpenPostgres(connString string, log *slog.Logger) (*Storage, error) {
	const op = "storage.OpenPostgres"

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = initializeSchema(db, postgresDialect); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("storage initialized", slog.String("backend", postgresDialect.name))
	return &Storage{DB: db, d: postgresDialect, log: log}, nil
}
