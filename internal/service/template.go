package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
	"imposter/internal/imagestore"
)

// TemplateService reads templates and bulk-loads template definition files.
type TemplateService struct {
	templates repositories.TemplateRepository
	images    *imagestore.Store
	logger    *slog.Logger
}

// NewTemplateService creates a template service.
func NewTemplateService(templates repositories.TemplateRepository, images *imagestore.Store, logger *slog.Logger) *TemplateService {
	return &TemplateService{templates: templates, images: images, logger: logger}
}

// Get returns one enabled template.
func (s *TemplateService) Get(ctx context.Context, id int64) (*models.Template, error) {
	return s.templates.GetByID(ctx, id)
}

// List returns all enabled templates.
func (s *TemplateService) List(ctx context.Context) ([]models.Template, error) {
	return s.templates.List(ctx)
}

// specFile mirrors a template definition file. Static image fields carry
// inline Base64 payloads that get ingested into the template-scoped image
// collection during loading.
type specFile struct {
	Name   string               `json:"name" yaml:"name"`
	W      int                  `json:"w" yaml:"w"`
	H      int                  `json:"h" yaml:"h"`
	Color  string               `json:"color" yaml:"color"`
	Thumb  string               `json:"thumb" yaml:"thumb"`
	Frames map[string]frameFile `json:"frames" yaml:"frames"`
	Fields map[string]fieldFile `json:"fields" yaml:"fields"`
}

type frameFile struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	W        float64 `json:"w" yaml:"w"`
	H        float64 `json:"h" yaml:"h"`
	Align    string  `json:"align" yaml:"align"`
	Case     string  `json:"case" yaml:"case"`
	Scale    string  `json:"scale" yaml:"scale"`
	FontSize float64 `json:"font_size" yaml:"font_size"`
	Color    string  `json:"color" yaml:"color"`
}

type fieldFile struct {
	Type      string               `json:"type" yaml:"type"`
	Mandatory bool                 `json:"mandatory" yaml:"mandatory"`
	Static    bool                 `json:"static" yaml:"static"`
	Text      string               `json:"text" yaml:"text"`
	Filename  string               `json:"filename" yaml:"filename"`
	Data      string               `json:"data" yaml:"data"`
	Children  map[string]fieldFile `json:"children" yaml:"children"`
}

// LoadDir loads every .json/.yaml/.yml template definition in dir, skipping
// templates that already exist by name. Returns how many were created.
func (s *TemplateService) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read spec directory: %w", err)
	}

	created := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		ok, err := s.loadFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return created, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *TemplateService) loadFile(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var file specFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return false, fmt.Errorf("parse spec file: %w", err)
	}
	if file.Name == "" || file.W <= 0 || file.H <= 0 {
		return false, fmt.Errorf("spec file must declare name, w and h")
	}

	if _, err := s.templates.GetByName(ctx, file.Name); err == nil {
		s.logger.Info("template exists, skipped", "name", file.Name)
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	schema, err := s.buildSchema(ctx, file.Fields)
	if err != nil {
		return false, err
	}

	thumbURL := ""
	if file.Thumb != "" {
		thumbURL, err = s.images.SaveFile("specs/thumbs", file.Name, file.Thumb)
		if err != nil {
			return false, err
		}
	}

	frames := make(models.FrameLayout, len(file.Frames))
	for name, f := range file.Frames {
		frames[name] = models.Frame{
			X: f.X, Y: f.Y, W: f.W, H: f.H,
			Align: f.Align, Case: f.Case, Scale: f.Scale,
			FontSize: f.FontSize, Color: f.Color,
		}
	}

	tpl := &models.Template{
		Name:     file.Name,
		W:        file.W,
		H:        file.H,
		Color:    file.Color,
		ThumbURL: thumbURL,
		Frames:   frames,
		Fields:   schema,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return false, err
	}

	s.logger.Info("template created", "name", tpl.Name, "id", tpl.ID)
	return true, nil
}

// buildSchema converts file fields to the schema model, ingesting static
// image payloads and replacing them with stored references.
func (s *TemplateService) buildSchema(ctx context.Context, fields map[string]fieldFile) (models.FieldSchema, error) {
	schema := make(models.FieldSchema, len(fields))
	for name, f := range fields {
		fs := &models.FieldSpec{
			Type:      models.FieldType(f.Type),
			Mandatory: f.Mandatory,
			Static:    f.Static,
			Text:      f.Text,
		}

		if f.Children != nil {
			children, err := s.buildSchema(ctx, f.Children)
			if err != nil {
				return nil, err
			}
			fs.Children = children
		}

		if f.Static && fs.Type == models.FieldImage && f.Data != "" {
			img, err := s.images.Ingest(ctx, models.SpecImages, fieldtree.Params{
				"filename": f.Filename,
				"data":     f.Data,
			}, nil)
			if err != nil {
				return nil, err
			}
			fs.ImageID = img.ID
		}

		schema[name] = fs
	}
	return schema, nil
}
