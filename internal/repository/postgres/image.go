package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"imposter/internal/domain"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
)

// PostgresImageRepository implements the ImageRepository interface.
type PostgresImageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewImageRepository creates a new stored-image repository.
func NewImageRepository(config *RepositoryConfig) repositories.ImageRepository {
	return &PostgresImageRepository{pool: config.Pool, tables: config.Tables}
}

// Create inserts a stored-image record.
func (r *PostgresImageRepository) Create(ctx context.Context, img *models.StoredImage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, collection, path, url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Images)

	_, err := r.pool.Exec(ctx, query, img.ID, img.Collection, img.Path, img.URL, img.Created)
	if err != nil {
		return fmt.Errorf("create image record: %w", err)
	}
	return nil
}

// GetByID returns a stored-image record.
func (r *PostgresImageRepository) GetByID(ctx context.Context, id string) (*models.StoredImage, error) {
	query := fmt.Sprintf(`
		SELECT id, collection, path, url, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Images)

	var img models.StoredImage
	err := r.pool.QueryRow(ctx, query, id).Scan(&img.ID, &img.Collection, &img.Path, &img.URL, &img.Created)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("image %s not found", id)}
		}
		return nil, fmt.Errorf("get image record: %w", err)
	}
	return &img, nil
}

// Delete removes a stored-image record.
func (r *PostgresImageRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Images)

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("image %s not found", id)}
	}
	return nil
}
