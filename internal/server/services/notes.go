package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// NoteService enforces note ownership. Every method acts on behalf of an
// authenticated identity and only ever touches notes that identity owns;
// a note owned by someone else is reported as common.ErrorNotFound.
//
// Create and Delete keep the owner's note index in step with the notes
// table by doing both writes in one transaction.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m}
}

// List returns the caller's notes, newest first.
func (s *NoteService) List(ctx context.Context, id auth.Identity) ([]*models.Note, error) {
	notes, err := s.repomanager.Notes(s.db).ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}
	return notes, nil
}

// Get returns one of the caller's notes.
func (s *NoteService) Get(ctx context.Context, id auth.Identity, noteID string) (*models.Note, error) {
	noteID, err := parseNoteID(noteID)
	if err != nil {
		return nil, err
	}

	note, err := s.repomanager.Notes(s.db).GetByOwner(ctx, noteID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading note: %w", err)
	}
	return note, nil
}

// Create stores a new note owned by the caller and appends it to the
// caller's note index. If the caller's account is gone the whole
// transaction is rolled back and common.ErrorNotFound is returned.
func (s *NoteService) Create(ctx context.Context, id auth.Identity, title, content string) (*models.Note, error) {
	if err := validateNote(title, content); err != nil {
		return nil, err
	}

	note := &models.Note{ID: uuid.NewString(), OwnerID: id.UserID, Title: title, Content: content}

	var created *models.Note
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Notes(tx).Create(ctx, note)
		if err != nil {
			return fmt.Errorf("error creating note: %w", err)
		}
		if err := s.repomanager.Users(tx).AddNote(ctx, id.UserID, n.ID); err != nil {
			return fmt.Errorf("error indexing note: %w", err)
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces title and content of one of the caller's notes.
func (s *NoteService) Update(ctx context.Context, id auth.Identity, noteID, title, content string) (*models.Note, error) {
	noteID, err := parseNoteID(noteID)
	if err != nil {
		return nil, err
	}
	if err := validateNote(title, content); err != nil {
		return nil, err
	}

	note := &models.Note{ID: noteID, OwnerID: id.UserID, Title: title, Content: content}
	updated, err := s.repomanager.Notes(s.db).Update(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("error updating note: %w", err)
	}
	return updated, nil
}

// Delete removes one of the caller's notes together with its entry in the
// caller's note index. Either both happen or neither does. A note that is
// missing from its owner's index is reported as common.ErrorInternal and
// left in place.
func (s *NoteService) Delete(ctx context.Context, id auth.Identity, noteID string) error {
	noteID, err := parseNoteID(noteID)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		notes := s.repomanager.Notes(tx)
		if _, err := notes.GetByOwnerForUpdate(ctx, noteID, id.UserID); err != nil {
			return fmt.Errorf("error loading note: %w", err)
		}

		users := s.repomanager.Users(tx)
		owner, err := users.GetByID(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("error loading owner: %w", err)
		}
		if !owner.OwnsNote(noteID) {
			return fmt.Errorf("%w: note %s missing from owner index", common.ErrorInternal, noteID)
		}

		if err := notes.Delete(ctx, noteID, id.UserID); err != nil {
			return fmt.Errorf("error deleting note: %w", err)
		}
		if err := users.RemoveNote(ctx, id.UserID, noteID); err != nil {
			return fmt.Errorf("error unindexing note: %w", err)
		}
		return nil
	})
}

// Share adds targetID to the recipients of one of the caller's notes.
// A missing, unknown or self target and a repeated share are all
// conflicts. Recipients gain no access through Get, List or Search.
func (s *NoteService) Share(ctx context.Context, id auth.Identity, noteID, targetID string) (*models.Note, error) {
	noteID, err := parseNoteID(noteID)
	if err != nil {
		return nil, err
	}

	notes := s.repomanager.Notes(s.db)
	note, err := notes.GetByOwner(ctx, noteID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading note: %w", err)
	}

	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, fmt.Errorf("%w: target user is missing", common.ErrorConflict)
	}
	target, err := uuid.Parse(targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: target user does not exist", common.ErrorConflict)
	}
	targetID = target.String()

	if note.OwnedBy(targetID) {
		return nil, fmt.Errorf("%w: a note cannot be shared with its owner", common.ErrorConflict)
	}
	if note.IsSharedWith(targetID) {
		return nil, fmt.Errorf("%w: note is already shared with this user", common.ErrorConflict)
	}

	exists, err := s.repomanager.Users(s.db).Exists(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("error loading target user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: target user does not exist", common.ErrorConflict)
	}

	shared, err := notes.AddShare(ctx, noteID, id.UserID, targetID)
	if err != nil {
		return nil, fmt.Errorf("error sharing note: %w", err)
	}
	return shared, nil
}

// Search runs a full-text query over the caller's notes.
func (s *NoteService) Search(ctx context.Context, id auth.Identity, query string) ([]*models.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", common.ErrorValidation)
	}

	notes, err := s.repomanager.Notes(s.db).Search(ctx, id.UserID, query)
	if err != nil {
		return nil, fmt.Errorf("error searching notes: %w", err)
	}
	return notes, nil
}

func validateNote(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", common.ErrorValidation)
	}
	return nil
}

// parseNoteID canonicalizes a note id. Anything that is not a UUID cannot
// name a note.
func parseNoteID(noteID string) (string, error) {
	u, err := uuid.Parse(noteID)
	if err != nil {
		return "", fmt.Errorf("%w: note", common.ErrorNotFound)
	}
	return u.String(), nil
}
