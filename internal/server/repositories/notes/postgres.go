package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

const noteColumns = `id, owner_id, title, content, shared_with, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	n := &models.Note{}
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content,
		dbx.StringArray(&n.SharedWith), &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Create inserts note and fills in its timestamps. An owner id that does
// not reference a user yields common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (id, owner_id, title, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.OwnerID, note.Title, note.Content).Scan(&note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	note.SharedWith = []string{}
	return note, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id
		 `

	return r.getMany(ctx, query, ownerID)
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, noteID, ownerID string) (*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE id = $1 AND owner_id = $2
		 `

	return r.getOne(ctx, query, noteID, ownerID)
}

// GetByOwnerForUpdate is GetByOwner with a row lock held until the
// surrounding transaction ends.
func (r *PostgresRepository) GetByOwnerForUpdate(ctx context.Context, noteID, ownerID string) (*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE id = $1 AND owner_id = $2
		 FOR UPDATE
		 `

	return r.getOne(ctx, query, noteID, ownerID)
}

// Update replaces title and content of a note owned by note.OwnerID.
func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`UPDATE notes SET title = $3, content = $4, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + noteColumns + `
		 `

	return r.getOne(ctx, query, note.ID, note.OwnerID, note.Title, note.Content)
}

func (r *PostgresRepository) Delete(ctx context.Context, noteID, ownerID string) error {
	query :=
		`DELETE FROM notes
		 WHERE id = $1 AND owner_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// AddShare appends targetID to the recipients of a note owned by ownerID.
// The update only applies while targetID is neither the owner nor already
// a recipient; otherwise common.ErrorConflict is returned. A missing note
// yields common.ErrorNotFound.
func (r *PostgresRepository) AddShare(ctx context.Context, noteID, ownerID, targetID string) (*models.Note, error) {
	query :=
		`UPDATE notes SET shared_with = array_append(shared_with, $3), updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		   AND owner_id <> $3 AND NOT ($3 = ANY (shared_with))
		 RETURNING ` + noteColumns + `
		 `

	n, err := r.getOne(ctx, query, noteID, ownerID, targetID)
	if !errors.Is(err, common.ErrorNotFound) {
		return n, err
	}

	// Zero rows: tell a missing note from a rejected recipient.
	if _, err := r.GetByOwner(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	return nil, common.ErrorConflict
}

// Search returns the owner's notes whose title or content match the
// words of query, best match first.
func (r *PostgresRepository) Search(ctx context.Context, ownerID, query string) ([]*models.Note, error) {
	q :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE owner_id = $1 AND search_vector @@ plainto_tsquery('english', $2)
		 ORDER BY ts_rank(search_vector, plainto_tsquery('english', $2)) DESC, created_at DESC
		 `

	return r.getMany(ctx, q, ownerID, query)
}
