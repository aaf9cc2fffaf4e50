package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories react to.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// ErrorCode returns the SQLSTATE of err, or "" when err is not a server error.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate key error.
func IsUniqueViolation(err error) bool {
	return ErrorCode(err) == CodeUniqueViolation
}

// IsForeignKeyViolation reports a referential integrity error.
func IsForeignKeyViolation(err error) bool {
	return ErrorCode(err) == CodeForeignKeyViolation
}

// IsCheckViolation reports a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	return ErrorCode(err) == CodeCheckViolation
}

// IsRetryable reports errors after which the whole transaction may be retried.
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return true
	}
	return false
}
