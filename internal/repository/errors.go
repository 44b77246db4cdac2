package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateEmail se devuelve cuando el constraint unico de email falla.
var ErrDuplicateEmail = errors.New("email already registered")

const uniqueViolationCode = "23505"

// mapUniqueViolation traduce violaciones del constraint de email al error tipado.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicateEmail
	}
	return err
}
