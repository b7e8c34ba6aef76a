package database

import (
	"context"
	"errors"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

// ReserveStorage rezerwuje bytes w jednym warunkowym UPDATE. Rezerwacja
// przechodzi tylko, gdy nowe zużycie mieści się w limicie; inaczej wiersz
// nie zostaje dotknięty i wraca ErrQuotaExceeded.
func (q *Queries) ReserveStorage(ctx context.Context, userID int64, bytes int64) (int64, error) {
	query := `
		UPDATE users
		SET storage_used_bytes = storage_used_bytes + $2
		WHERE id = $1 AND storage_used_bytes + $2 <= $3
		RETURNING storage_used_bytes
	`
	var used int64
	err := q.db.QueryRow(ctx, query, userID, bytes, models.StorageCapacityBytes).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrQuotaExceeded
		}
		return 0, err
	}

	return used, nil
}

// ReleaseStorage oddaje bytes do puli użytkownika. Zużycie nigdy nie
// schodzi poniżej zera, nawet przy nadmiarowym zwolnieniu.
func (q *Queries) ReleaseStorage(ctx context.Context, userID int64, bytes int64) (int64, error) {
	query := `
		UPDATE users
		SET storage_used_bytes = GREATEST(storage_used_bytes - $2, 0)
		WHERE id = $1
		RETURNING storage_used_bytes
	`
	var used int64
	err := q.db.QueryRow(ctx, query, userID, bytes).Scan(&used)
	if err != nil {
		return 0, err
	}

	return used, nil
}

func (q *Queries) GetStorageUsed(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT storage_used_bytes FROM users WHERE id = $1`
	var used int64
	err := q.db.QueryRow(ctx, query, userID).Scan(&used)
	if err != nil {
		return 0, err
	}
	return used, nil
}
