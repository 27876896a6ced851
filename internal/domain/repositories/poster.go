package repositories

import (
	"context"
	"time"

	"imposter/internal/domain/models"
)

// PosterFilter narrows poster listings. Zero values mean "no constraint".
type PosterFilter struct {
	Since      time.Time
	Until      time.Time
	BureauID   int64
	TemplateID int64
	Limit      int
	Offset     int
}

// PosterRepository persists poster instances.
type PosterRepository interface {
	// Create inserts a poster and fills in its generated id and timestamps.
	Create(ctx context.Context, poster *models.Poster) error

	// GetByID returns a poster, or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Poster, error)

	// Update persists the saved fields, artifact URLs and modified timestamp.
	Update(ctx context.Context, poster *models.Poster) error

	// Delete removes a poster, or returns domain.ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// List returns posters matching the filter, newest first.
	List(ctx context.Context, filter PosterFilter) ([]models.Poster, error)
}
