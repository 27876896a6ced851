package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
	"imposter/internal/imagestore"
	"imposter/internal/render"
)

// PosterInput is the payload for poster creation and update. A zero
// BureauID/TemplateID on update means "keep the current value".
type PosterInput struct {
	BureauID   int64
	TemplateID int64
	Fields     fieldtree.Tree
}

// PosterService drives the create/update/delete lifecycle: validation,
// image write-through, rendering and persistence.
type PosterService struct {
	posters   repositories.PosterRepository
	templates repositories.TemplateRepository
	bureaus   repositories.BureauRepository
	images    *imagestore.Store
	blobs     imagestore.BlobStore
	renderer  *render.Renderer
	logger    *slog.Logger
	now       func() time.Time
}

// NewPosterService creates a poster service.
func NewPosterService(
	posters repositories.PosterRepository,
	templates repositories.TemplateRepository,
	bureaus repositories.BureauRepository,
	images *imagestore.Store,
	blobs imagestore.BlobStore,
	renderer *render.Renderer,
	logger *slog.Logger,
) *PosterService {
	return &PosterService{
		posters:   posters,
		templates: templates,
		bureaus:   bureaus,
		images:    images,
		blobs:     blobs,
		renderer:  renderer,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the submitted field tree against the template's schema,
// writes embedded image payloads through the image store, renders both
// artifacts and persists the poster. On any failure after the row insert
// the row is removed again, so no partial poster survives.
func (s *PosterService) Create(ctx context.Context, in PosterInput) (*models.Poster, error) {
	tpl, err := s.templates.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	bureau, err := s.bureaus.GetByID(ctx, in.BureauID)
	if err != nil {
		return nil, err
	}

	normalized, err := ValidateFields(in.Fields, tpl.Fields, nil)
	if err != nil {
		return nil, err
	}
	normalized, ingested, err := s.ingestImages(ctx, normalized, tpl.Fields, "", nil)
	if err != nil {
		return nil, err
	}

	poster := &models.Poster{
		BureauID:   in.BureauID,
		TemplateID: in.TemplateID,
		Fields:     normalized,
	}
	if err := s.posters.Create(ctx, poster); err != nil {
		return nil, err
	}

	if err := s.renderArtifacts(ctx, tpl, bureau, poster); err != nil {
		if delErr := s.posters.Delete(ctx, poster.ID); delErr != nil {
			s.logger.Error("rollback poster after render failure", "id", poster.ID, "error", delErr)
		}
		// Images ingested for this poster would otherwise be orphaned.
		for _, imgID := range ingested {
			s.images.Remove(ctx, imgID)
		}
		return nil, err
	}
	if err := s.posters.Update(ctx, poster); err != nil {
		return nil, err
	}

	s.logger.Info("poster created", "id", poster.ID, "template", tpl.Name, "bureau", bureau.Abbrev)
	return poster, nil
}

// Update merges the submitted fields over the stored tree and regenerates
// both artifacts wholesale. Only same-day posters are updatable; the
// template reference is immutable.
func (s *PosterService) Update(ctx context.Context, id int64, in PosterInput) (*models.Poster, error) {
	poster, err := s.posters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !poster.Editable(s.now()) {
		return nil, &domain.ForbiddenError{
			Message: "poster can only be edited on the day it was created",
			Target:  domain.ErrEditWindowClosed,
		}
	}
	if in.TemplateID != 0 && in.TemplateID != poster.TemplateID {
		return nil, &domain.ForbiddenError{
			Message: "poster template cannot be changed",
			Target:  domain.ErrImmutableField,
		}
	}

	tpl, err := s.templates.GetByID(ctx, poster.TemplateID)
	if err != nil {
		return nil, err
	}

	if in.BureauID != 0 && in.BureauID != poster.BureauID {
		if _, err := s.bureaus.GetByID(ctx, in.BureauID); err != nil {
			return nil, err
		}
		poster.BureauID = in.BureauID
	}
	bureau, err := s.bureaus.GetByID(ctx, poster.BureauID)
	if err != nil {
		return nil, err
	}

	normalized, err := ValidateFields(in.Fields, tpl.Fields, poster.Fields)
	if err != nil {
		return nil, err
	}
	normalized, _, err = s.ingestImages(ctx, normalized, tpl.Fields, "", poster.Fields)
	if err != nil {
		return nil, err
	}
	poster.Fields = normalized

	if err := s.renderArtifacts(ctx, tpl, bureau, poster); err != nil {
		return nil, err
	}
	if err := s.posters.Update(ctx, poster); err != nil {
		return nil, err
	}

	s.logger.Info("poster updated", "id", poster.ID)
	return poster, nil
}

// Delete removes a poster; like updates, only within the edit window.
func (s *PosterService) Delete(ctx context.Context, id int64) error {
	poster, err := s.posters.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !poster.Editable(s.now()) {
		return &domain.ForbiddenError{
			Message: "poster can only be deleted on the day it was created",
			Target:  domain.ErrEditWindowClosed,
		}
	}
	return s.posters.Delete(ctx, poster.ID)
}

// Get returns one poster.
func (s *PosterService) Get(ctx context.Context, id int64) (*models.Poster, error) {
	return s.posters.GetByID(ctx, id)
}

// List returns posters matching the filter.
func (s *PosterService) List(ctx context.Context, filter repositories.PosterFilter) ([]models.Poster, error) {
	return s.posters.List(ctx, filter)
}

// Editable exposes the edit-window derivation for callers (handlers,
// serializers); the flag is never stored.
func (s *PosterService) Editable(p *models.Poster) bool {
	return p.Editable(s.now())
}

// ingestImages walks the normalized tree and replaces every image leaf's
// payload with a stored-image reference. Leaves with neither payload nor
// reference (unfilled optional fields) are left untouched.
func (s *PosterService) ingestImages(ctx context.Context, tree fieldtree.Tree, schema models.FieldSchema, inherited models.FieldType, prior fieldtree.Tree) (fieldtree.Tree, []string, error) {
	out := make(fieldtree.Tree, len(tree))
	var created []string
	for name, node := range tree {
		var own models.FieldType
		var children models.FieldSchema
		if fs := schema[name]; fs != nil {
			own = fs.Type
			children = fs.Children
		}

		if node.IsGroup() {
			down := own
			if down == "" {
				down = inherited
			}
			var priorChildren fieldtree.Tree
			if p := prior.Get(name); p.IsGroup() {
				priorChildren = p.Children
			}
			sub, subCreated, err := s.ingestImages(ctx, node.Children, children, down, priorChildren)
			if err != nil {
				return nil, created, err
			}
			created = append(created, subCreated...)
			out[name] = fieldtree.Group(sub)
			continue
		}

		kind := inherited
		if kind == "" {
			kind = own
		}
		if kind != models.FieldImage {
			out[name] = node
			continue
		}
		if !node.Params.Has("data") && !node.Params.Has("id") {
			out[name] = node
			continue
		}

		var priorLeaf fieldtree.Params
		if p := prior.Get(name); p != nil && !p.IsGroup() {
			priorLeaf = p.Params
		}
		fresh := node.Params.Has("data")
		img, err := s.images.Ingest(ctx, models.PosterImages, node.Params, priorLeaf)
		if err != nil {
			return nil, created, err
		}
		if fresh {
			created = append(created, img.ID)
		}
		out[name] = fieldtree.Leaf(imagestore.NormalizedLeaf(img))
	}
	return out, created, nil
}

// renderArtifacts regenerates print and thumbnail and publishes both before
// the poster row is touched, so readers never see one artifact without the
// other.
func (s *PosterService) renderArtifacts(ctx context.Context, tpl *models.Template, bureau *models.Bureau, poster *models.Poster) error {
	pdf, thumb, err := s.renderer.Render(ctx, tpl, poster.Fields, poster.Created)
	if err != nil {
		return fmt.Errorf("render poster %d: %w", poster.ID, err)
	}

	base := artifactName(poster, bureau, tpl)
	printURL, err := s.blobs.Write("posters/"+base+".pdf", pdf)
	if err != nil {
		return fmt.Errorf("write print document: %w", err)
	}
	thumbURL, err := s.blobs.Write("posters/"+base+".jpeg", thumb)
	if err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}

	poster.PrintURL = printURL
	poster.ThumbURL = thumbURL
	return nil
}

// artifactName builds the artifact file stem:
// <id 5-digit>_<bureau-abbrev>_<title-slug>_<ddmmyy>.
func artifactName(poster *models.Poster, bureau *models.Bureau, tpl *models.Template) string {
	return fmt.Sprintf("%05d_%s_%s_%02d%02d%02d",
		poster.ID,
		bureau.Abbrev,
		imagestore.Slugify(poster.Title(tpl.Name)),
		poster.Created.Day(),
		int(poster.Created.Month()),
		poster.Created.Year()%100,
	)
}
