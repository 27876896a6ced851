package models

import (
	"fmt"
	"time"
)

// FieldType is the closed enum of fillable field kinds. Each kind owns its
// allowed/mandatory parameter contract and its draw routine in the renderer.
type FieldType string

const (
	FieldText  FieldType = "text"
	FieldImage FieldType = "image"
)

// AllowedParams returns the complete set of leaf parameters a submission may
// carry for this field type. Unknown types are a programming invariant
// violation, not user input, hence the panic.
func (t FieldType) AllowedParams() map[string]bool {
	switch t {
	case FieldText:
		return map[string]bool{"text": true}
	case FieldImage:
		// url is emitted by normalization and accepted back so that a
		// normalized tree re-validates unchanged; it is never mandatory.
		return map[string]bool{"id": true, "filename": true, "data": true, "url": true}
	}
	panic(fmt.Sprintf("unknown field type %q", string(t)))
}

// MandatoryParams returns the parameters a leaf of this type must carry,
// before reuse and prior-value exemptions are applied.
func (t FieldType) MandatoryParams() map[string]bool {
	switch t {
	case FieldText:
		return map[string]bool{"text": true}
	case FieldImage:
		return map[string]bool{"filename": true, "data": true}
	}
	panic(fmt.Sprintf("unknown field type %q", string(t)))
}

// FieldSpec describes one schema entry: its type, whether posters must fill
// it, whether it is static template content, and its nested children. Static
// entries also carry their baked-in content (Text, or ImageID once the
// loader has ingested the image).
type FieldSpec struct {
	Type      FieldType   `json:"type,omitempty"`
	Mandatory bool        `json:"mandatory,omitempty"`
	Static    bool        `json:"static,omitempty"`
	Text      string      `json:"text,omitempty"`
	ImageID   string      `json:"id,omitempty"`
	Children  FieldSchema `json:"children,omitempty"`
}

// FieldSchema maps field names to their specs.
type FieldSchema map[string]*FieldSpec

// Editable returns the top-level fields posters may supply.
func (s FieldSchema) Editable() FieldSchema {
	out := make(FieldSchema)
	for name, fs := range s {
		if !fs.Static {
			out[name] = fs
		}
	}
	return out
}

// Static returns the top-level fields baked into the template.
func (s FieldSchema) Static() FieldSchema {
	out := make(FieldSchema)
	for name, fs := range s {
		if fs.Static {
			out[name] = fs
		}
	}
	return out
}

// Mandatory returns the top-level fields posters must fill.
func (s FieldSchema) Mandatory() FieldSchema {
	out := make(FieldSchema)
	for name, fs := range s {
		if fs.Mandatory {
			out[name] = fs
		}
	}
	return out
}

// Text alignment and case-transform constants for frame styles.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"

	CaseUpper = "upper"
	CaseLower = "lower"

	ScaleCrop = "crop"
)

// Frame holds the drawing parameters of one field: position, optional box
// size and optional style overrides. Coordinates and sizes are millimeters.
type Frame struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w,omitempty"`
	H float64 `json:"h,omitempty"`

	Align    string  `json:"align,omitempty"` // left|center|right, default left
	Case     string  `json:"case,omitempty"`  // upper|lower, default as written
	Scale    string  `json:"scale,omitempty"` // crop, default fit
	FontSize float64 `json:"font_size,omitempty"`
	Color    string  `json:"color,omitempty"` // hex RRGGBB
}

// HasBox reports whether the frame constrains content to a box.
func (f Frame) HasBox() bool { return f.W > 0 && f.H > 0 }

// FrameLayout maps field names to their frames.
type FrameLayout map[string]Frame

// Template is the reusable poster definition: canvas size in millimeters, a
// distinguishing color, the frame layout and the field schema. Read-only to
// the core once loaded.
type Template struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	W        int         `json:"w"`
	H        int         `json:"h"`
	Color    string      `json:"color"`
	ThumbURL string      `json:"thumb"`
	Frames   FrameLayout `json:"-"`
	Fields   FieldSchema `json:"-"`
	Disabled bool        `json:"-"`

	Created  time.Time `json:"created_at"`
	Modified time.Time `json:"updated_at"`
}
