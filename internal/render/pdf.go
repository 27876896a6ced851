package render

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"

	"imposter/internal/domain/models"
)

// composePDF draws the element list onto a single-page PDF at the
// template's native millimeter size. Document dates are pinned to at so a
// re-render of unchanged content is byte-stable.
func composePDF(tpl *models.Template, elems []element, at time.Time) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: float64(tpl.W), Ht: float64(tpl.H)},
	})
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	for _, el := range elems {
		switch el.kind {
		case models.FieldText:
			drawPDFText(pdf, el)
		case models.FieldImage:
			drawPDFImage(pdf, el)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawPDFText(pdf *fpdf.Fpdf, el element) {
	size := el.frame.FontSize
	if size == 0 {
		size = defaultFontSize
	}
	pdf.SetFont("Helvetica", "", size)
	red, green, blue := parseHexColor(el.frame.Color)
	pdf.SetTextColor(red, green, blue)

	if el.frame.HasBox() {
		pdf.SetXY(el.frame.X, el.frame.Y)
		lineH := size * mmPerPt * lineSpacing
		pdf.MultiCell(el.frame.W, lineH, el.text, "", multiCellAlign(el.frame.Align), false)
		return
	}

	x := el.frame.X
	switch el.frame.Align {
	case models.AlignCenter:
		x -= pdf.GetStringWidth(el.text) / 2
	case models.AlignRight:
		x -= pdf.GetStringWidth(el.text)
	}
	pdf.Text(x, el.frame.Y, el.text)
}

func drawPDFImage(pdf *fpdf.Fpdf, el element) {
	opts := fpdf.ImageOptions{ImageType: "JPEG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(el.imgKey, opts, bytes.NewReader(el.imgBytes))

	if !el.frame.HasBox() {
		// Native resolution, anchored at the frame position.
		pdf.ImageOptions(el.imgKey, el.frame.X, el.frame.Y, 0, 0, false, opts, 0, "")
		return
	}

	bounds := el.img.Bounds()
	w, h := fitSize(float64(bounds.Dx()), float64(bounds.Dy()), el.frame.W, el.frame.H)
	x := el.frame.X + (el.frame.W-w)/2
	y := el.frame.Y + (el.frame.H-h)/2
	pdf.ImageOptions(el.imgKey, x, y, w, h, false, opts, 0, "")
}

func multiCellAlign(align string) string {
	switch align {
	case models.AlignCenter:
		return "C"
	case models.AlignRight:
		return "R"
	}
	return "L"
}
