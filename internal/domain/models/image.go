package models

import "time"

// Image collections keep template-scoped and poster-scoped files apart.
const (
	SpecImages   = "specs/images"
	PosterImages = "posters/images"
)

// StoredImage is a persisted image file plus its retrievable reference.
// Path is blob-store relative; URL is what callers dereference.
type StoredImage struct {
	ID         string    `json:"id"`
	Collection string    `json:"-"`
	Path       string    `json:"-"`
	URL        string    `json:"url"`
	Created    time.Time `json:"created_at"`
}
