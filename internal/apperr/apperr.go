package apperr

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error is the typed failure every service operation returns. Code is stable
// for clients, Status is what the transport layer writes.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func NotFound(msg string) *Error {
	return &Error{Code: "not_found", Message: msg, Status: http.StatusNotFound}
}

func Conflict(msg string) *Error {
	return &Error{Code: "conflict", Message: msg, Status: http.StatusConflict}
}

func InsufficientFunds() *Error {
	return &Error{Code: "insufficient_funds", Message: "insufficient funds", Status: http.StatusBadRequest}
}

func InvalidOperation(msg string) *Error {
	return &Error{Code: "invalid_operation", Message: msg, Status: http.StatusBadRequest}
}

// InvalidState marks an illegal journal-entry status transition. Correct
// callers never trigger it.
func InvalidState(msg string) *Error {
	return &Error{Code: "invalid_state", Message: msg, Status: http.StatusInternalServerError}
}

func Forbidden(msg string) *Error {
	return &Error{Code: "forbidden", Message: msg, Status: http.StatusForbidden}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: "unauthorized", Message: msg, Status: http.StatusUnauthorized}
}

// StatusOf maps any error to an HTTP status; unknown errors are 500s.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
