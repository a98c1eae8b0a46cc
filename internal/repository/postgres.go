package repository

import (
	"errors"

	"github.com/lib/pq"
)

const pgErrUniqueViolation = "23505"

// isUniqueViolation はerrがPostgreSQLの一意制約違反かどうかを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgErrUniqueViolation
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}
