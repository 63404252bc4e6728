package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteDialect = dialect{
	name:             "sqlite",
	serialPrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	rebind:           rebindQuestion,
	isUniqueViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		return errors.As(err, &sqliteErr) &&
			sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	},
}

// OpenSQLite открывает (или создаёт) базу SQLite по указанному пути и
// инициализирует схему. WAL и busy_timeout выставляются через DSN.
func OpenSQLite(path string, log *slog.Logger) (*Storage, error) {
	const op = "storage.OpenSQLite"

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
			"foreign_keys(ON)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Запись в SQLite однопоточная, одно соединение исключает SQLITE_BUSY
	// между опросом и фоновой очисткой.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = initializeSchema(db, sqliteDialect); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("storage initialized", slog.String("backend", sqliteDialect.name), slog.String("path", path))
	return &Storage{DB: db, d: sqliteDialect, log: log}, nil
}
