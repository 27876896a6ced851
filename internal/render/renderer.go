// Package render composes a template's frame layout, its static fields and
// a poster's saved values into drawable elements, then produces the
// print-resolution vector document and the raster thumbnail preview.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/imagestore"
)

const (
	// ThumbMaxPx caps the thumbnail's longest side.
	ThumbMaxPx = 640

	// aspectTolerance is the relative aspect-ratio divergence below which a
	// boxed image is drawn fitted instead of cropped.
	aspectTolerance = 0.06

	defaultFontSize = 12.0 // pt
	lineSpacing     = 1.2
	jpegQuality     = 90

	mmPerPt  = 25.4 / 72.0
	mmPerPx  = 25.4 / 96.0 // image native resolution assumes 96 dpi
)

// ImageResolver resolves stored-image references to their records.
type ImageResolver interface {
	GetByID(ctx context.Context, id string) (*models.StoredImage, error)
}

// Renderer is safe for concurrent use; each render works on its own state.
type Renderer struct {
	blobs  imagestore.BlobStore
	images ImageResolver
	logger *slog.Logger
}

// New creates a renderer reading image bytes from blobs and references
// from images.
func New(blobs imagestore.BlobStore, images ImageResolver, logger *slog.Logger) *Renderer {
	return &Renderer{blobs: blobs, images: images, logger: logger}
}

// element is one resolved drawable: a text run or a decoded image, paired
// with its frame.
type element struct {
	name  string
	kind  models.FieldType
	frame models.Frame

	text string // case transform already applied

	img      image.Image
	imgBytes []byte // encoded bytes actually drawn (original or crop variant)
	imgKey   string // unique registration key (blob path of the variant)
}

// Render produces the vector print document and the raster thumbnail for a
// template plus the poster's saved editable values. at stamps the document
// metadata so identical inputs yield identical bytes. Either both artifacts
// are returned or neither.
func (r *Renderer) Render(ctx context.Context, tpl *models.Template, saved fieldtree.Tree, at time.Time) (pdf, thumb []byte, err error) {
	elems, err := r.assemble(ctx, tpl, saved)
	if err != nil {
		return nil, nil, err
	}

	pdf, err = composePDF(tpl, elems, at)
	if err != nil {
		return nil, nil, fmt.Errorf("compose print document: %w", err)
	}
	thumb, err = composeThumb(tpl, elems)
	if err != nil {
		return nil, nil, fmt.Errorf("compose thumbnail: %w", err)
	}
	return pdf, thumb, nil
}

// assemble builds the ordered drawable list: static fields first (name
// order), then the poster's filled editable leaves.
func (r *Renderer) assemble(ctx context.Context, tpl *models.Template, saved fieldtree.Tree) ([]element, error) {
	var elems []element

	statics := tpl.Fields.Static()
	names := make([]string, 0, len(statics))
	for name := range statics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var err error
		elems, err = r.appendStatic(ctx, tpl, name, statics[name], statics[name].Type, elems)
		if err != nil {
			return nil, err
		}
	}

	var err error
	elems, err = r.appendEditable(ctx, tpl, saved, tpl.Fields, "", elems)
	if err != nil {
		return nil, err
	}
	return elems, nil
}

func (r *Renderer) appendStatic(ctx context.Context, tpl *models.Template, name string, fs *models.FieldSpec, inherited models.FieldType, elems []element) ([]element, error) {
	if fs.Children != nil {
		childNames := make([]string, 0, len(fs.Children))
		for n := range fs.Children {
			childNames = append(childNames, n)
		}
		sort.Strings(childNames)
		down := fs.Type
		if down == "" {
			down = inherited
		}
		for _, n := range childNames {
			var err error
			elems, err = r.appendStatic(ctx, tpl, n, fs.Children[n], down, elems)
			if err != nil {
				return nil, err
			}
		}
		return elems, nil
	}

	kind := inherited
	if kind == "" {
		kind = fs.Type
	}
	frame, ok := tpl.Frames[name]
	if !ok {
		r.logger.Warn("static field has no frame, skipping", "template", tpl.Name, "field", name)
		return elems, nil
	}

	switch kind {
	case models.FieldText:
		if fs.Text == "" {
			return elems, nil
		}
		elems = append(elems, textElement(name, frame, fs.Text))
	case models.FieldImage:
		if fs.ImageID == "" {
			return elems, nil
		}
		el, err := r.imageElement(ctx, name, frame, fs.ImageID)
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	default:
		panic(fmt.Sprintf("unknown field type %q", string(kind)))
	}
	return elems, nil
}

func (r *Renderer) appendEditable(ctx context.Context, tpl *models.Template, tree fieldtree.Tree, schema models.FieldSchema, inherited models.FieldType, elems []element) ([]element, error) {
	for _, name := range tree.Keys() {
		node := tree[name]

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
			var err error
			elems, err = r.appendEditable(ctx, tpl, node.Children, children, down, elems)
			if err != nil {
				return nil, err
			}
			continue
		}

		kind := inherited
		if kind == "" {
			kind = own
		}

		// Unfilled optional leaves are not drawn.
		text := node.Params.String("text")
		imageID := node.Params.String("id")
		if text == "" && imageID == "" {
			continue
		}

		frame, ok := tpl.Frames[name]
		if !ok {
			r.logger.Warn("field has no frame, skipping", "template", tpl.Name, "field", name)
			continue
		}

		switch kind {
		case models.FieldText:
			if text == "" {
				continue
			}
			elems = append(elems, textElement(name, frame, text))
		case models.FieldImage:
			if imageID == "" {
				continue
			}
			el, err := r.imageElement(ctx, name, frame, imageID)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		default:
			panic(fmt.Sprintf("unknown field type %q", string(kind)))
		}
	}
	return elems, nil
}

func textElement(name string, frame models.Frame, text string) element {
	switch frame.Case {
	case models.CaseUpper:
		text = strings.ToUpper(text)
	case models.CaseLower:
		text = strings.ToLower(text)
	}
	return element{name: name, kind: models.FieldText, frame: frame, text: text}
}

// imageElement resolves a stored image to its drawable form, producing and
// caching a centered crop variant when the frame demands one.
func (r *Renderer) imageElement(ctx context.Context, name string, frame models.Frame, id string) (element, error) {
	stored, err := r.images.GetByID(ctx, id)
	if err != nil {
		return element{}, fmt.Errorf("resolve image for field %s: %w", name, err)
	}

	raw, err := r.blobs.Read(stored.Path)
	if err != nil {
		return element{}, fmt.Errorf("read image %s: %w", stored.Path, err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return element{}, fmt.Errorf("decode image %s: %w", stored.Path, err)
	}

	el := element{name: name, kind: models.FieldImage, frame: frame, img: img, imgBytes: raw, imgKey: stored.Path}

	if frame.HasBox() && frame.Scale == models.ScaleCrop {
		bounds := img.Bounds()
		if !withinAspectTolerance(bounds.Dx(), bounds.Dy(), frame.W/frame.H) {
			cropped, croppedBytes, cropKey, err := r.cropVariant(stored.Path, img, frame)
			if err != nil {
				return element{}, err
			}
			el.img = cropped
			el.imgBytes = croppedBytes
			el.imgKey = cropKey
		}
	}
	return el, nil
}

// withinAspectTolerance reports whether an image's aspect ratio diverges
// from the box ratio by at most the fixed tolerance.
func withinAspectTolerance(w, h int, boxRatio float64) bool {
	if h == 0 || boxRatio == 0 {
		return true
	}
	ratio := float64(w) / float64(h)
	return math.Abs(ratio-boxRatio) <= aspectTolerance*boxRatio
}

// cropVariant returns the largest centered crop matching the box aspect,
// cached in the blob store alongside the original.
func (r *Renderer) cropVariant(origPath string, img image.Image, frame models.Frame) (image.Image, []byte, string, error) {
	ext := path.Ext(origPath)
	key := strings.TrimSuffix(origPath, ext) + fmt.Sprintf("_crop_%dx%d", int(frame.W), int(frame.H)) + ext

	if r.blobs.Exists(key) {
		cached, err := r.blobs.Read(key)
		if err == nil {
			if decoded, err := imaging.Decode(bytes.NewReader(cached)); err == nil {
				return decoded, cached, key, nil
			}
		}
		r.logger.Warn("unreadable crop cache, regenerating", "path", key)
	}

	bounds := img.Bounds()
	cw, ch := cropSize(bounds.Dx(), bounds.Dy(), frame.W/frame.H)
	cropped := imaging.CropCenter(img, cw, ch)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, nil, "", fmt.Errorf("encode crop variant: %w", err)
	}
	if _, err := r.blobs.Write(key, buf.Bytes()); err != nil {
		return nil, nil, "", fmt.Errorf("cache crop variant: %w", err)
	}
	// Decode the encoded bytes back so a fresh crop and a later cache hit
	// produce pixel-identical thumbnails.
	decoded, err := imaging.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, nil, "", fmt.Errorf("decode crop variant: %w", err)
	}
	return decoded, buf.Bytes(), key, nil
}

// cropSize computes the largest rectangle with the box's aspect ratio that
// fits within a source of srcW x srcH pixels.
func cropSize(srcW, srcH int, boxRatio float64) (int, int) {
	srcRatio := float64(srcW) / float64(srcH)
	if srcRatio > boxRatio {
		return int(math.Round(float64(srcH) * boxRatio)), srcH
	}
	return srcW, int(math.Round(float64(srcW) / boxRatio))
}

// fitSize scales srcW x srcH to fit within boxW x boxH preserving aspect.
func fitSize(srcW, srcH, boxW, boxH float64) (float64, float64) {
	scale := math.Min(boxW/srcW, boxH/srcH)
	return srcW * scale, srcH * scale
}
