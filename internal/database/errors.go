package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row addressed by id does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique or foreign key constraint rejects a write
var ErrConflict = errors.New("conflict")

// Translate maps driver errors onto the package sentinels
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return errors.Join(ErrConflict, err)
		case "22P02":
			// malformed uuid in a path parameter
			return ErrNotFound
		}
	}
	return err
}
