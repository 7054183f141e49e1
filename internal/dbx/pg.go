package dbx

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// StringArray returns a sql.Scanner that decodes a PostgreSQL array column
// (text[], uuid[], ...) into dst. database/sql has no native array support,
// so the pgtype codecs do the parsing. A NULL array leaves dst nil.
func StringArray(dst *[]string) sql.Scanner {
	// pgtype.Map caches plans and is not safe for concurrent use.
	return pgtype.NewMap().SQLScanner(dst)
}

// IsUniqueViolation reports whether err carries a unique_violation error
// from PostgreSQL.
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgUniqueViolation)
}

// IsForeignKeyViolation reports whether err carries a foreign_key_violation
// error from PostgreSQL.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pgForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
