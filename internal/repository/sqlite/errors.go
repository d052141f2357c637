package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/devfolio/internal/apperror"
)

// mapError translates driver errors into the apperror taxonomy.
// Errors it does not recognise are returned unchanged.
//
//	FOREIGN KEY violation → ErrNotFound (a referenced user or item is gone)
//	CHECK violation       → ErrValidation
//	UNIQUE / PRIMARY KEY  → ErrConflict
//	BUSY, LOCKED, I/O, closed pool → ErrUnavailable
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &apperror.AppError{
				Err:     errors.Join(apperror.ErrNotFound, err),
				Message: "referenced record not found",
			}
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return &apperror.AppError{
				Err:     errors.Join(apperror.ErrValidation, err),
				Message: "value violates a data constraint",
			}
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &apperror.AppError{
				Err:     errors.Join(apperror.ErrConflict, err),
				Message: "record already exists",
			}
		}

		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return apperror.Unavailable(err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return apperror.Unavailable(err)
	}

	return err
}

// isBusy reports whether err is a lock conflict worth retrying.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
