package httpkit

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsUndefinedTable reports a PostgreSQL undefined_table error (42P01).
func IsUndefinedTable(err error) bool {
	return pgCode(err) == "42P01"
}

// IsUniqueViolation reports a PostgreSQL unique_violation error (23505).
func IsUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
