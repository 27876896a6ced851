package repositories

import (
	"context"

	"imposter/internal/domain/models"
)

// ImageRepository persists stored-image records. File bytes live in the
// blob store; this tracks references only.
type ImageRepository interface {
	// Create inserts a record with a caller-generated id.
	Create(ctx context.Context, img *models.StoredImage) error

	// GetByID returns a record, or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.StoredImage, error)

	// Delete removes a record, or returns domain.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
