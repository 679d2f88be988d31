package mysql

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// duplicateEntryErrNo is the MySQL error number for "ER_DUP_ENTRY",
// raised when a write violates a unique index.
const duplicateEntryErrNo = 1062

// translateError maps a raw database/sql or go-sql-driver/mysql error
// into one of the package's sentinel errors, leaving any
// other error untouched so callers can still inspect it with errors.Is.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w", h2h.ErrNotFound)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo {
		return fmt.Errorf("%w: %v", h2h.ErrDuplicateKey, mysqlErr.Message)
	}
	return err
}

// isDuplicateKey reports whether err is (or wraps) a MySQL duplicate-key
// violation, without going through translateError's wrapping.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo
}
