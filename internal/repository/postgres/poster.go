package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
)

// PostgresPosterRepository implements the PosterRepository interface.
type PostgresPosterRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPosterRepository creates a new poster repository.
func NewPosterRepository(config *RepositoryConfig) repositories.PosterRepository {
	return &PostgresPosterRepository{pool: config.Pool, tables: config.Tables}
}

// Create inserts a poster.
func (r *PostgresPosterRepository) Create(ctx context.Context, poster *models.Poster) error {
	fields, err := fieldtree.Dump(poster.Fields)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (bureau_id, spec_id, saved_fields, thumb_url, print_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Posters)

	err = r.pool.QueryRow(ctx, query,
		poster.BureauID, poster.TemplateID, fields,
		poster.ThumbURL, poster.PrintURL, time.Now(),
	).Scan(&poster.ID, &poster.Created, &poster.Modified)

	if err != nil {
		return fmt.Errorf("create poster: %w", err)
	}
	return nil
}

// GetByID returns a poster.
func (r *PostgresPosterRepository) GetByID(ctx context.Context, id int64) (*models.Poster, error) {
	query := fmt.Sprintf(`
		SELECT id, bureau_id, spec_id, saved_fields, thumb_url, print_url, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Posters)

	poster, err := r.scanPoster(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("poster %d not found", id)}
		}
		return nil, fmt.Errorf("get poster: %w", err)
	}
	return poster, nil
}

// Update persists saved fields, bureau, artifact URLs and the modified
// timestamp.
func (r *PostgresPosterRepository) Update(ctx context.Context, poster *models.Poster) error {
	fields, err := fieldtree.Dump(poster.Fields)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET bureau_id = $2, saved_fields = $3, thumb_url = $4, print_url = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Posters)

	err = r.pool.QueryRow(ctx, query,
		poster.ID, poster.BureauID, fields,
		poster.ThumbURL, poster.PrintURL, time.Now(),
	).Scan(&poster.Modified)

	if err != nil {
		if isPgNoRowsError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("poster %d not found", poster.ID)}
		}
		return fmt.Errorf("update poster: %w", err)
	}
	return nil
}

// Delete removes a poster.
func (r *PostgresPosterRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Posters)

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete poster: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("poster %d not found", id)}
	}
	return nil
}

// List returns posters matching the filter, newest first.
func (r *PostgresPosterRepository) List(ctx context.Context, filter repositories.PosterFilter) ([]models.Poster, error) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	if !filter.Since.IsZero() {
		add("created_at >= ", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("created_at <= ", filter.Until)
	}
	if filter.BureauID != 0 {
		add("bureau_id = ", filter.BureauID)
	}
	if filter.TemplateID != 0 {
		add("spec_id = ", filter.TemplateID)
	}

	query := fmt.Sprintf(`
		SELECT id, bureau_id, spec_id, saved_fields, thumb_url, print_url, created_at, updated_at
		FROM %s
	`, r.tables.Posters)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posters: %w", err)
	}
	defer rows.Close()

	var posters []models.Poster
	for rows.Next() {
		poster, err := r.scanPoster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poster: %w", err)
		}
		posters = append(posters, *poster)
	}
	return posters, rows.Err()
}

func (r *PostgresPosterRepository) scanPoster(row rowScanner) (*models.Poster, error) {
	var poster models.Poster
	var fields []byte

	err := row.Scan(
		&poster.ID, &poster.BureauID, &poster.TemplateID, &fields,
		&poster.ThumbURL, &poster.PrintURL, &poster.Created, &poster.Modified,
	)
	if err != nil {
		return nil, err
	}

	tree, err := fieldtree.Parse(fields)
	if err != nil {
		return nil, err
	}
	poster.Fields = tree
	return &poster, nil
}
