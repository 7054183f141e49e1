package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
)

// memStore backs the fake repositories. Writes are applied immediately;
// tests pair it with sqlmock to observe commit and rollback.
type memStore struct {
	users map[string]*models.User
	notes map[string]*models.Note

	// injected failures
	addNoteErr    error
	removeNoteErr error
	listErr       error
	existsErr     error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, notes: map[string]*models.Note{}}
}

func (s *memStore) addUser(id, email, hash string) *models.User {
	u := &models.User{ID: id, Email: email, PasswordHash: hash, NoteIDs: []string{}, CreatedAt: time.Now()}
	s.users[id] = u
	return u
}

func clone(n *models.Note) *models.Note {
	c := *n
	c.SharedWith = slices.Clone(n.SharedWith)
	return &c
}

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, e := range f.s.users {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.NoteIDs = []string{}
	u.CreatedAt = time.Now()
	f.s.users[u.ID] = u
	return u, nil
}

func (f fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.s.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f fakeUsers) Exists(ctx context.Context, id string) (bool, error) {
	if f.s.existsErr != nil {
		return false, f.s.existsErr
	}
	_, ok := f.s.users[id]
	return ok, nil
}

func (f fakeUsers) AddNote(ctx context.Context, userID, noteID string) error {
	if f.s.addNoteErr != nil {
		return f.s.addNoteErr
	}
	u, ok := f.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.NoteIDs = append(u.NoteIDs, noteID)
	return nil
}

func (f fakeUsers) RemoveNote(ctx context.Context, userID, noteID string) error {
	if f.s.removeNoteErr != nil {
		return f.s.removeNoteErr
	}
	u, ok := f.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.NoteIDs = slices.DeleteFunc(u.NoteIDs, func(id string) bool { return id == noteID })
	return nil
}

type fakeNotes struct{ s *memStore }

func (f fakeNotes) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	n.SharedWith = []string{}
	n.CreatedAt, n.UpdatedAt = time.Now(), time.Now()
	f.s.notes[n.ID] = clone(n)
	return n, nil
}

func (f fakeNotes) owned(ownerID string) []*models.Note {
	out := make([]*models.Note, 0)
	for _, n := range f.s.notes {
		if n.OwnerID == ownerID {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeNotes) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	if f.s.listErr != nil {
		return nil, f.s.listErr
	}
	return f.owned(ownerID), nil
}

func (f fakeNotes) GetByOwner(ctx context.Context, noteID, ownerID string) (*models.Note, error) {
	n, ok := f.s.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return clone(n), nil
}

func (f fakeNotes) GetByOwnerForUpdate(ctx context.Context, noteID, ownerID string) (*models.Note, error) {
	return f.GetByOwner(ctx, noteID, ownerID)
}

func (f fakeNotes) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	n, ok := f.s.notes[note.ID]
	if !ok || n.OwnerID != note.OwnerID {
		return nil, common.ErrorNotFound
	}
	n.Title, n.Content, n.UpdatedAt = note.Title, note.Content, time.Now()
	return clone(n), nil
}

func (f fakeNotes) Delete(ctx context.Context, noteID, ownerID string) error {
	n, ok := f.s.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.s.notes, noteID)
	return nil
}

func (f fakeNotes) AddShare(ctx context.Context, noteID, ownerID, targetID string) (*models.Note, error) {
	n, ok := f.s.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	if n.OwnedBy(targetID) || n.IsSharedWith(targetID) {
		return nil, common.ErrorConflict
	}
	n.SharedWith = append(n.SharedWith, targetID)
	return clone(n), nil
}

func (f fakeNotes) Search(ctx context.Context, ownerID, query string) ([]*models.Note, error) {
	out := make([]*models.Note, 0)
	for _, n := range f.owned(ownerID) {
		if containsFold(n.Title, query) || containsFold(n.Content, query) {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository        { return fakeUsers{m.s} }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notes.Repository        { return fakeNotes{m.s} }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
