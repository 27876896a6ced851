package models

import (
	"fmt"
	"time"

	"imposter/internal/domain/fieldtree"
)

// Poster is one filled instance of a template. SavedFields holds the
// normalized editable value tree only - image payloads are replaced with
// stored-image references before persistence. Print and thumb artifacts are
// regenerated wholesale on every create and update.
type Poster struct {
	ID         int64          `json:"id"`
	BureauID   int64          `json:"bureau"`
	TemplateID int64          `json:"spec"`
	Fields     fieldtree.Tree `json:"fields"`
	ThumbURL   string         `json:"thumb"`
	PrintURL   string         `json:"print"`

	Created  time.Time `json:"created_at"`
	Modified time.Time `json:"updated_at"`
}

// Editable reports whether the poster can still be changed: only on the
// calendar day it was created. Derived at read time, never stored, so clock
// rollover needs no persisted transition.
func (p *Poster) Editable(now time.Time) bool {
	cy, cm, cd := p.Created.Date()
	ny, nm, nd := now.Date()
	return cy == ny && cm == nm && cd == nd
}

// Title returns the poster's display title: the text of its "title" field
// when filled, else a fallback derived from id and template name.
func (p *Poster) Title(templateName string) string {
	if n := p.Fields.Get("title"); n != nil && !n.IsGroup() {
		if text := n.Params.String("text"); text != "" {
			return text
		}
	}
	return fmt.Sprintf("Poster %d (%s)", p.ID, templateName)
}
