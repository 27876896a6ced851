package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"imposter/internal/domain"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
)

// PostgresTemplateRepository implements the TemplateRepository interface.
// Frames and fields are stored as jsonb.
type PostgresTemplateRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(config *RepositoryConfig) repositories.TemplateRepository {
	return &PostgresTemplateRepository{pool: config.Pool, tables: config.Tables}
}

// Create inserts a template.
func (r *PostgresTemplateRepository) Create(ctx context.Context, tpl *models.Template) error {
	frames, err := json.Marshal(tpl.Frames)
	if err != nil {
		return fmt.Errorf("encode frames: %w", err)
	}
	fields, err := json.Marshal(tpl.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, w, h, color, thumb_url, frames, fields, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Templates)

	err = r.pool.QueryRow(ctx, query,
		tpl.Name, tpl.W, tpl.H, tpl.Color, tpl.ThumbURL,
		frames, fields, tpl.Disabled, time.Now(),
	).Scan(&tpl.ID, &tpl.Created, &tpl.Modified)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("template '%s' already exists: %w", tpl.Name, err)
		}
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// GetByID returns an enabled template.
func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	query := fmt.Sprintf(`
		SELECT id, name, w, h, color, thumb_url, frames, fields, disabled, created_at, updated_at
		FROM %s
		WHERE id = $1 AND NOT disabled
	`, r.tables.Templates)

	tpl, err := r.scanTemplate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("template %d: %w", id, domain.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

// GetByName returns a template by unique name regardless of disabled state.
func (r *PostgresTemplateRepository) GetByName(ctx context.Context, name string) (*models.Template, error) {
	query := fmt.Sprintf(`
		SELECT id, name, w, h, color, thumb_url, frames, fields, disabled, created_at, updated_at
		FROM %s
		WHERE name = $1
	`, r.tables.Templates)

	tpl, err := r.scanTemplate(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("template '%s': %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get template by name: %w", err)
	}
	return tpl, nil
}

// List returns all enabled templates ordered by name.
func (r *PostgresTemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	query := fmt.Sprintf(`
		SELECT id, name, w, h, color, thumb_url, frames, fields, disabled, created_at, updated_at
		FROM %s
		WHERE NOT disabled
		ORDER BY name
	`, r.tables.Templates)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		tpl, err := r.scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresTemplateRepository) scanTemplate(row rowScanner) (*models.Template, error) {
	var tpl models.Template
	var frames, fields []byte

	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.W, &tpl.H, &tpl.Color, &tpl.ThumbURL,
		&frames, &fields, &tpl.Disabled, &tpl.Created, &tpl.Modified,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(frames, &tpl.Frames); err != nil {
		return nil, fmt.Errorf("decode frames: %w", err)
	}
	if err := json.Unmarshal(fields, &tpl.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return &tpl, nil
}
