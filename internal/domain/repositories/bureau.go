package repositories

import (
	"context"

	"imposter/internal/domain/models"
)

// BureauRepository reads bureaus; they are administered out of band.
type BureauRepository interface {
	// GetByID returns an enabled bureau, or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Bureau, error)

	// List returns all enabled bureaus ordered by name.
	List(ctx context.Context) ([]models.Bureau, error)
}
