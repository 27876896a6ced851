package service

import (
	"context"
	"time"

	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
)

// TemplateRef is the short template form embedded in poster views.
type TemplateRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PosterView is the API representation of a poster with its bureau and
// template resolved.
type PosterView struct {
	ID       int64          `json:"id"`
	Editable bool           `json:"editable"`
	Title    string         `json:"title"`
	Bureau   models.Bureau  `json:"bureau"`
	Spec     TemplateRef    `json:"spec"`
	Fields   fieldtree.Tree `json:"fields"`
	ThumbURL string         `json:"thumb"`
	PrintURL string         `json:"print"`
	Created  time.Time      `json:"created"`
	Modified time.Time      `json:"modified"`
}

// View resolves the poster's bureau and template and assembles the API view.
func (s *PosterService) View(ctx context.Context, p *models.Poster) (*PosterView, error) {
	tpl, err := s.templates.GetByID(ctx, p.TemplateID)
	if err != nil {
		return nil, err
	}
	bureau, err := s.bureaus.GetByID(ctx, p.BureauID)
	if err != nil {
		return nil, err
	}
	return &PosterView{
		ID:       p.ID,
		Editable: p.Editable(s.now()),
		Title:    p.Title(tpl.Name),
		Bureau:   *bureau,
		Spec:     TemplateRef{ID: tpl.ID, Name: tpl.Name, Color: tpl.Color},
		Fields:   p.Fields,
		ThumbURL: p.ThumbURL,
		PrintURL: p.PrintURL,
		Created:  p.Created,
		Modified: p.Modified,
	}, nil
}

// Views assembles views for a poster list.
func (s *PosterService) Views(ctx context.Context, posters []models.Poster) ([]PosterView, error) {
	views := make([]PosterView, 0, len(posters))
	for i := range posters {
		v, err := s.View(ctx, &posters[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}
