package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"imposter/internal/domain/models"
)

var (
	baseFontOnce sync.Once
	baseFont     *opentype.Font
	baseFontErr  error
)

func loadBaseFont() (*opentype.Font, error) {
	baseFontOnce.Do(func() {
		baseFont, baseFontErr = opentype.Parse(goregular.TTF)
	})
	return baseFont, baseFontErr
}

// composeThumb re-draws the element list onto an opaque raster canvas whose
// longest side is ThumbMaxPx, then JPEG-encodes it. The canvas is flattened
// to white, matching the print document's paper.
func composeThumb(tpl *models.Template, elems []element) ([]byte, error) {
	// pixels per millimeter at thumbnail scale
	scale := float64(ThumbMaxPx) / math.Max(float64(tpl.W), float64(tpl.H))
	canvas := imaging.New(
		int(math.Round(float64(tpl.W)*scale)),
		int(math.Round(float64(tpl.H)*scale)),
		color.White,
	)

	fnt, err := loadBaseFont()
	if err != nil {
		return nil, fmt.Errorf("load base font: %w", err)
	}

	for _, el := range elems {
		switch el.kind {
		case models.FieldText:
			if err := drawRasterText(canvas, fnt, el, scale); err != nil {
				return nil, err
			}
		case models.FieldImage:
			canvas = drawRasterImage(canvas, el, scale)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func drawRasterText(canvas *image.NRGBA, fnt *opentype.Font, el element, scale float64) error {
	sizePt := el.frame.FontSize
	if sizePt == 0 {
		sizePt = defaultFontSize
	}
	sizePx := sizePt * mmPerPt * scale

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	red, green, blue := parseHexColor(el.frame.Color)
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{R: uint8(red), G: uint8(green), B: uint8(blue), A: 0xff}),
		Face: face,
	}

	if el.frame.HasBox() {
		boxW := el.frame.W * scale
		lines := wrapText(face, el.text, boxW)
		ascent := float64(face.Metrics().Ascent) / 64
		lineH := sizePx * lineSpacing

		for i, line := range lines {
			x := el.frame.X * scale
			if el.frame.Align == models.AlignCenter || el.frame.Align == models.AlignRight {
				slack := boxW - measureString(face, line)
				if el.frame.Align == models.AlignCenter {
					x += slack / 2
				} else {
					x += slack
				}
			}
			baseline := el.frame.Y*scale + ascent + float64(i)*lineH
			drawer.Dot = fixed.P(int(math.Round(x)), int(math.Round(baseline)))
			drawer.DrawString(line)
		}
		return nil
	}

	x := el.frame.X * scale
	switch el.frame.Align {
	case models.AlignCenter:
		x -= measureString(face, el.text) / 2
	case models.AlignRight:
		x -= measureString(face, el.text)
	}
	drawer.Dot = fixed.P(int(math.Round(x)), int(math.Round(el.frame.Y*scale)))
	drawer.DrawString(el.text)
	return nil
}

func drawRasterImage(canvas *image.NRGBA, el element, scale float64) *image.NRGBA {
	frame := el.frame
	x := frame.X * scale
	y := frame.Y * scale

	if !frame.HasBox() {
		// Native resolution at 96 dpi, scaled to thumbnail space.
		bounds := el.img.Bounds()
		w := int(math.Round(float64(bounds.Dx()) * mmPerPx * scale))
		h := int(math.Round(float64(bounds.Dy()) * mmPerPx * scale))
		if w < 1 || h < 1 {
			return canvas
		}
		resized := imaging.Resize(el.img, w, h, imaging.Lanczos)
		return imaging.Paste(canvas, resized, image.Pt(int(math.Round(x)), int(math.Round(y))))
	}

	boxW := int(math.Round(frame.W * scale))
	boxH := int(math.Round(frame.H * scale))
	if boxW < 1 || boxH < 1 {
		return canvas
	}
	fitted := imaging.Fit(el.img, boxW, boxH, imaging.Lanczos)
	offX := int(math.Round(x)) + (boxW-fitted.Bounds().Dx())/2
	offY := int(math.Round(y)) + (boxH-fitted.Bounds().Dy())/2
	return imaging.Paste(canvas, fitted, image.Pt(offX, offY))
}

// wrapText flows text into lines no wider than maxWidth pixels using greedy
// word wrapping; a single word wider than the box still gets its own line.
func wrapText(face font.Face, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measureString(face, candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

func measureString(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}
