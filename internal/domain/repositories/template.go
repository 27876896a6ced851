package repositories

import (
	"context"

	"imposter/internal/domain/models"
)

// TemplateRepository persists poster templates. Disabled templates are
// filtered out by every read method; the core never sees them.
type TemplateRepository interface {
	// Create inserts a template and fills in its generated id and timestamps.
	Create(ctx context.Context, tpl *models.Template) error

	// GetByID returns an enabled template, or domain.ErrTemplateNotFound.
	GetByID(ctx context.Context, id int64) (*models.Template, error)

	// GetByName returns a template by unique name regardless of disabled
	// state (the loader uses it for skip-if-exists), or domain.ErrNotFound.
	GetByName(ctx context.Context, name string) (*models.Template, error)

	// List returns all enabled templates ordered by name.
	List(ctx context.Context) ([]models.Template, error)
}
