package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

var (
	ErrDuplicateEntryName = errors.New("an entry with the same name and type already exists in this folder")
	ErrParentNotFound     = errors.New("parent folder does not exist")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrUsernameTaken      = errors.New("username is already taken")
)

// Tłumaczenie kodów błędów Postgresa na błędy domenowe.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateEntryName
		case "23503":
			return ErrParentNotFound
		}
	}
	return err
}
