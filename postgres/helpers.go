package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isForeignKeyViolation checks if an error is a PostgreSQL foreign key violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}

// changedPaths returns the old paths that differ from their replacement.
func changedPaths(pairs ...[2]string) []string {
	var out []string
	for _, p := range pairs {
		if p[0] != "" && p[0] != p[1] {
			out = append(out, p[0])
		}
	}
	return out
}
