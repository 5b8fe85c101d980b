package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens an error into structured logging fields: the top
// message and code, the unwrap chain, and driver-level detail when a
// postgres error (pgx or lib/pq) hides in the chain.
func LogFields(err error) map[string]any {
	if err == nil {
		return nil
	}

	fields := map[string]any{
		"error": err.Error(),
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	fields["error_chain"] = chain

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		fields["pg_code"] = pgxErr.Code
		fields["pg_constraint"] = pgxErr.ConstraintName
		fields["pg_table"] = pgxErr.TableName
		fields["pg_column"] = pgxErr.ColumnName
		fields["pg_detail"] = pgxErr.Detail
		fields["pg_message"] = pgxErr.Message
		return fields
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		fields["pg_code"] = string(pqErr.Code)
		fields["pg_constraint"] = pqErr.Constraint
		fields["pg_table"] = pqErr.Table
		fields["pg_column"] = pqErr.Column
		fields["pg_detail"] = pqErr.Detail
		fields["pg_message"] = pqErr.Message
		return fields
	}

	return fields
}
