package render

import (
	"bytes"
	"context"
	"image/color"
	"log/slog"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/opentype"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/imagestore"
)

// fakeResolver resolves stored-image references from a map.
type fakeResolver struct {
	images map[string]*models.StoredImage
}

func (r *fakeResolver) GetByID(_ context.Context, id string) (*models.StoredImage, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return img, nil
}

func newTestRenderer(t *testing.T) (*Renderer, *imagestore.FSBlobStore, *fakeResolver) {
	t.Helper()
	blobs, err := imagestore.NewFSBlobStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewFSBlobStore() error = %v", err)
	}
	resolver := &fakeResolver{images: make(map[string]*models.StoredImage)}
	return New(blobs, resolver, slog.New(slog.DiscardHandler)), blobs, resolver
}

// storeJPEG encodes a solid test image into the blob store and registers it
// with the resolver.
func storeJPEG(t *testing.T, blobs *imagestore.FSBlobStore, resolver *fakeResolver, id, blobPath string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	if _, err := blobs.Write(blobPath, buf.Bytes()); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	resolver.images[id] = &models.StoredImage{ID: id, Path: blobPath, URL: "/media/" + blobPath}
}

func eventTemplate() *models.Template {
	return &models.Template{
		ID:    1,
		Name:  "Event A4",
		W:     210,
		H:     297,
		Color: "ffcc00",
		Frames: models.FrameLayout{
			"header": {X: 10, Y: 10, W: 190, H: 20, Align: models.AlignCenter, Case: models.CaseUpper},
			"title":  {X: 10, Y: 40, W: 190, H: 30, FontSize: 24},
			"photo":  {X: 10, Y: 80, W: 190, H: 120, Scale: models.ScaleCrop},
		},
		Fields: models.FieldSchema{
			"header": {Type: models.FieldText, Static: true, Text: "Imposter Events"},
			"title":  {Type: models.FieldText, Mandatory: true},
			"photo":  {Type: models.FieldImage},
		},
	}
}

func TestAssembleStaticFirstThenEditable(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	tpl := eventTemplate()
	saved := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "Launch Party"}),
	}

	elems, err := r.assemble(context.Background(), tpl, saved)
	if err != nil {
		t.Fatalf("assemble() error = %v", err)
	}

	if len(elems) != 2 {
		t.Fatalf("len(elems) = %d, want 2", len(elems))
	}
	if elems[0].name != "header" {
		t.Errorf("elems[0] = %q, want static header first", elems[0].name)
	}
	// Static header carries the upper-case transform.
	if elems[0].text != "IMPOSTER EVENTS" {
		t.Errorf("header text = %q", elems[0].text)
	}
	if elems[1].name != "title" || elems[1].text != "Launch Party" {
		t.Errorf("elems[1] = %q/%q", elems[1].name, elems[1].text)
	}
}

func TestAssembleSkipsUnfilledAndFrameless(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	tpl := eventTemplate()
	tpl.Fields["note"] = &models.FieldSpec{Type: models.FieldText} // no frame

	saved := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{}), // unfilled
		"note":  fieldtree.Leaf(fieldtree.Params{"text": "dropped"}),
	}

	elems, err := r.assemble(context.Background(), tpl, saved)
	if err != nil {
		t.Fatalf("assemble() error = %v", err)
	}
	for _, el := range elems {
		if el.name == "photo" || el.name == "note" {
			t.Errorf("element %q should have been skipped", el.name)
		}
	}
}

func TestImageElementCropsBeyondTolerance(t *testing.T) {
	r, blobs, resolver := newTestRenderer(t)
	storeJPEG(t, blobs, resolver, "img1", "posters/images/tok_wide.jpg", 200, 100)

	frame := models.Frame{X: 0, Y: 0, W: 50, H: 50, Scale: models.ScaleCrop}
	el, err := r.imageElement(context.Background(), "photo", frame, "img1")
	if err != nil {
		t.Fatalf("imageElement() error = %v", err)
	}

	bounds := el.img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("crop = %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}
	wantKey := "posters/images/tok_wide_crop_50x50.jpg"
	if el.imgKey != wantKey {
		t.Errorf("imgKey = %q, want %q", el.imgKey, wantKey)
	}
	if !blobs.Exists(wantKey) {
		t.Error("crop variant not cached in blob store")
	}
}

func TestImageElementKeepsOriginalWithinTolerance(t *testing.T) {
	r, blobs, resolver := newTestRenderer(t)
	// 102x100 against a square box: 2% divergence, inside the tolerance.
	storeJPEG(t, blobs, resolver, "img1", "posters/images/tok_near.jpg", 102, 100)

	frame := models.Frame{X: 0, Y: 0, W: 50, H: 50, Scale: models.ScaleCrop}
	el, err := r.imageElement(context.Background(), "photo", frame, "img1")
	if err != nil {
		t.Fatalf("imageElement() error = %v", err)
	}
	if el.imgKey != "posters/images/tok_near.jpg" {
		t.Errorf("imgKey = %q, want original path", el.imgKey)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r, blobs, resolver := newTestRenderer(t)
	storeJPEG(t, blobs, resolver, "img1", "posters/images/tok_photo.jpg", 400, 300)

	tpl := eventTemplate()
	saved := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "Launch Party"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"id": "img1"}),
	}
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	pdf1, thumb1, err := r.Render(context.Background(), tpl, saved, at)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	pdf2, thumb2, err := r.Render(context.Background(), tpl, saved, at)
	if err != nil {
		t.Fatalf("Render() second error = %v", err)
	}

	if !bytes.Equal(pdf1, pdf2) {
		t.Error("print documents differ between identical renders")
	}
	if !bytes.Equal(thumb1, thumb2) {
		t.Error("thumbnails differ between identical renders")
	}
	if len(pdf1) == 0 || len(thumb1) == 0 {
		t.Error("empty artifact")
	}
}

func TestThumbnailBounded(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	tpl := eventTemplate()
	saved := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
	}

	_, thumb, err := r.Render(context.Background(), tpl, saved, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > ThumbMaxPx || b.Dy() > ThumbMaxPx {
		t.Errorf("thumbnail %dx%d exceeds %dpx", b.Dx(), b.Dy(), ThumbMaxPx)
	}
	// A 210x297 canvas is portrait; the long side carries the cap.
	if b.Dy() != ThumbMaxPx {
		t.Errorf("thumbnail height = %d, want %d", b.Dy(), ThumbMaxPx)
	}
}

func TestCropSize(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		boxRatio     float64
		wantW, wantH int
	}{
		{"wider than box", 200, 100, 1.0, 100, 100},
		{"taller than box", 100, 200, 1.0, 100, 100},
		{"exact match", 100, 100, 1.0, 100, 100},
		{"landscape box", 300, 300, 1.5, 300, 200},
		{"portrait box", 300, 300, 0.5, 150, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := cropSize(tt.srcW, tt.srcH, tt.boxRatio)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("cropSize(%d, %d, %v) = %dx%d, want %dx%d",
					tt.srcW, tt.srcH, tt.boxRatio, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitSize(t *testing.T) {
	w, h := fitSize(200, 100, 50, 50)
	if w != 50 || h != 25 {
		t.Errorf("fitSize = %vx%v, want 50x25", w, h)
	}
	w, h = fitSize(100, 200, 50, 50)
	if w != 25 || h != 50 {
		t.Errorf("fitSize = %vx%v, want 25x50", w, h)
	}
}

func TestWithinAspectTolerance(t *testing.T) {
	if !withinAspectTolerance(102, 100, 1.0) {
		t.Error("2% divergence should be within tolerance")
	}
	if withinAspectTolerance(110, 100, 1.0) {
		t.Error("10% divergence should exceed tolerance")
	}
	if !withinAspectTolerance(100, 0, 1.0) {
		t.Error("degenerate source should fall back to fit")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"ff0000", 255, 0, 0},
		{"#00ff00", 0, 255, 0},
		{"336699", 51, 102, 153},
		{"", 0, 0, 0},
		{"zzzzzz", 0, 0, 0},
		{"fff", 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := parseHexColor(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHexColor(%q) = %d,%d,%d want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestWrapText(t *testing.T) {
	fnt, err := loadBaseFont()
	if err != nil {
		t.Fatalf("loadBaseFont() error = %v", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: 14, DPI: 72})
	if err != nil {
		t.Fatalf("NewFace() error = %v", err)
	}
	defer face.Close()

	lines := wrapText(face, "a few words that need wrapping somewhere", 80)
	if len(lines) < 2 {
		t.Fatalf("lines = %v, want a wrap", lines)
	}
	for _, line := range lines {
		if line == "" {
			t.Error("empty wrapped line")
		}
	}
	// Re-joining loses nothing.
	var words int
	for _, line := range lines {
		words += len(bytes.Fields([]byte(line)))
	}
	if words != 7 {
		t.Errorf("wrapped word count = %d, want 7", words)
	}
}
