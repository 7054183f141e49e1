package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository persists notes. Every lookup and mutation is scoped by the
// owner id, so a row belonging to somebody else is indistinguishable from
// a missing one.
type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error)
	GetByOwner(ctx context.Context, noteID, ownerID string) (*models.Note, error)
	GetByOwnerForUpdate(ctx context.Context, noteID, ownerID string) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	Delete(ctx context.Context, noteID, ownerID string) error
	AddShare(ctx context.Context, noteID, ownerID, targetID string) (*models.Note, error)
	Search(ctx context.Context, ownerID, query string) ([]*models.Note, error)
}
