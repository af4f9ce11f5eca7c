// Package sqlite_repo - реализации репозиториев поверх встроенной SQLite.
// Время хранится в наносекундах Unix, транзакция берется из контекста trm.
package sqlite_repo

import (
	"database/sql"
	"errors"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type base struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func newBase(db *sql.DB) base {
	return base{db: db, getter: trmsql.DefaultCtxGetter}
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
