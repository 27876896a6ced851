package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"imposter/internal/domain"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
)

// PostgresBureauRepository implements the BureauRepository interface.
type PostgresBureauRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewBureauRepository creates a new bureau repository.
func NewBureauRepository(config *RepositoryConfig) repositories.BureauRepository {
	return &PostgresBureauRepository{pool: config.Pool, tables: config.Tables}
}

// GetByID returns an enabled bureau.
func (r *PostgresBureauRepository) GetByID(ctx context.Context, id int64) (*models.Bureau, error) {
	query := fmt.Sprintf(`
		SELECT id, name, abbrev, address, disabled
		FROM %s
		WHERE id = $1 AND NOT disabled
	`, r.tables.Bureaus)

	var b models.Bureau
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Abbrev, &b.Address, &b.Disabled)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("bureau %d not found", id)}
		}
		return nil, fmt.Errorf("get bureau: %w", err)
	}
	return &b, nil
}

// List returns all enabled bureaus ordered by name.
func (r *PostgresBureauRepository) List(ctx context.Context) ([]models.Bureau, error) {
	query := fmt.Sprintf(`
		SELECT id, name, abbrev, address, disabled
		FROM %s
		WHERE NOT disabled
		ORDER BY name
	`, r.tables.Bureaus)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bureaus: %w", err)
	}
	defer rows.Close()

	var bureaus []models.Bureau
	for rows.Next() {
		var b models.Bureau
		if err := rows.Scan(&b.ID, &b.Name, &b.Abbrev, &b.Address, &b.Disabled); err != nil {
			return nil, fmt.Errorf("scan bureau: %w", err)
		}
		bureaus = append(bureaus, b)
	}
	return bureaus, rows.Err()
}
