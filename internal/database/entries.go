package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, owner_id, parent_id, name, entry_type, path, size_bytes, mime_type, original_name, blob_key, created_at, modified_at, deleted_at`

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var e models.Entry
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.ParentID,
		&e.Name,
		&e.EntryType,
		&e.Path,
		&e.SizeBytes,
		&e.MimeType,
		&e.OriginalName,
		&e.BlobKey,
		&e.CreatedAt,
		&e.ModifiedAt,
		&e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]models.Entry, error) {
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		return []models.Entry{}, nil
	}

	return entries, nil
}

type CreateEntryParams struct {
	ID           string
	OwnerID      int64
	ParentID     *string
	Name         string
	EntryType    string
	Path         string
	SizeBytes    *int64
	MimeType     *string
	OriginalName *string
	BlobKey      *string
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (*models.Entry, error) {
	query := `
		INSERT INTO entries (id, owner_id, parent_id, name, entry_type, path, size_bytes, mime_type, original_name, blob_key, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + entryColumns
	now := time.Now()

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.ParentID,
		arg.Name,
		arg.EntryType,
		arg.Path,
		arg.SizeBytes,
		arg.MimeType,
		arg.OriginalName,
		arg.BlobKey,
		now,
		now,
	)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, translatePgError(err)
	}

	return entry, nil
}

// GetEntry pobiera nieusunięty wpis po samym id, bez filtra właściciela.
// Wołający musi sam porównać OwnerID, żeby odróżnić "nie istnieje" od "cudzy".
func (q *Queries) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND deleted_at IS NULL`

	entry, err := scanEntry(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

func (q *Queries) GetEntryByID(ctx context.Context, id string, ownerID int64) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	entry, err := scanEntry(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

func (q *Queries) EntryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM entries WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) ListEntriesByParent(ctx context.Context, ownerID int64, parentID *string, limit int, offset int) ([]models.Entry, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `SELECT ` + entryColumns + `
				 FROM entries
				 WHERE owner_id = $1 AND parent_id IS NULL AND deleted_at IS NULL
				 ORDER BY entry_type DESC, name
				 LIMIT $2 OFFSET $3`
		rows, err = q.db.Query(ctx, query, ownerID, limit, offset)
	} else {
		query := `SELECT ` + entryColumns + `
				 FROM entries
				 WHERE owner_id = $1 AND parent_id = $2 AND deleted_at IS NULL
				 ORDER BY entry_type DESC, name
				 LIMIT $3 OFFSET $4`
		rows, err = q.db.Query(ctx, query, ownerID, *parentID, limit, offset)
	}

	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

func (q *Queries) SearchEntries(ctx context.Context, ownerID int64, search string, limit int, offset int) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + `
			 FROM entries
			 WHERE owner_id = $1 AND deleted_at IS NULL AND name ILIKE '%' || $2 || '%'
			 ORDER BY entry_type DESC, name
			 LIMIT $3 OFFSET $4`

	rows, err := q.db.Query(ctx, query, ownerID, escapeLikePattern(search), limit, offset)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// FindEntriesByPathPrefix zwraca wszystkie nieusunięte wpisy, których ścieżka
// zaczyna się od podanego prefiksu. To jedyny mechanizm wyznaczania poddrzewa.
func (q *Queries) FindEntriesByPathPrefix(ctx context.Context, ownerID int64, prefix string) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + `
			 FROM entries
			 WHERE owner_id = $1 AND deleted_at IS NULL AND path LIKE $2 || '%'`

	rows, err := q.db.Query(ctx, query, ownerID, escapeLikePattern(prefix))
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// SiblingExists sprawdza kolizję nazwy wśród rodzeństwa tego samego typu.
func (q *Queries) SiblingExists(ctx context.Context, ownerID int64, parentID *string, name string, entryType string) (bool, error) {
	var exists bool
	var err error

	if parentID == nil {
		query := `SELECT EXISTS(
			SELECT 1 FROM entries
			WHERE owner_id = $1 AND parent_id IS NULL AND name = $2 AND entry_type = $3 AND deleted_at IS NULL
		)`
		err = q.db.QueryRow(ctx, query, ownerID, name, entryType).Scan(&exists)
	} else {
		query := `SELECT EXISTS(
			SELECT 1 FROM entries
			WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND entry_type = $4 AND deleted_at IS NULL
		)`
		err = q.db.QueryRow(ctx, query, ownerID, *parentID, name, entryType).Scan(&exists)
	}

	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) MarkEntryDeleted(ctx context.Context, id string, ownerID int64, deletedAt time.Time) (bool, error) {
	query := `
		UPDATE entries
		SET deleted_at = $3, modified_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, id, ownerID, deletedAt)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// MarkEntriesDeletedByPathPrefix oznacza jako usunięte całe poddrzewo
// wyznaczone prefiksem ścieżki. Wpisy już usunięte pozostają nietknięte.
func (q *Queries) MarkEntriesDeletedByPathPrefix(ctx context.Context, ownerID int64, prefix string, deletedAt time.Time) (int64, error) {
	query := `
		UPDATE entries
		SET deleted_at = $3, modified_at = $3
		WHERE owner_id = $1 AND path LIKE $2 || '%' AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, ownerID, escapeLikePattern(prefix), deletedAt)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected(), nil
}

// Nazwy wpisów mogą zawierać znaki specjalne LIKE.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
