package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pharmapos/internal/core/apperror"
)

const uniqueViolation = "23505"

// UniqueConstraint maps a unique constraint name to the field it guards.
type UniqueConstraint map[string]string

// TranslateUnique turns a unique violation on a known constraint into
// apperror DUPLICATE_ENTRY. Other errors are returned as is.
func TranslateUnique(err error, entity string, constraints UniqueConstraint, values map[string]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	field, ok := constraints[pgErr.ConstraintName]
	if !ok {
		field = pgErr.ConstraintName
	}
	return apperror.NewDuplicate(entity, field, values[field]).WithCause(err)
}
