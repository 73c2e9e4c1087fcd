package httperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Canonical domain error codes. Handlers map these onto HTTP statuses.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInvalidTransition  = "invalid_transition"
	CodeConflict           = "conflict"
	CodeValidation         = "validation_error"
	CodeUnavailable        = "unavailable"
)

type BusinessError struct {
	Code    string
	Message string
}

func (e BusinessError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func ErrBusinessf(code, message string) error {
	return BusinessError{Code: code, Message: message}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// BusinessCode extracts the domain code, or "" for non-business errors.
func BusinessCode(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// BusinessMessage extracts the human-readable detail, if any.
func BusinessMessage(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}

// IsUniqueViolation reports whether err is a postgres duplicate-key
// error (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
