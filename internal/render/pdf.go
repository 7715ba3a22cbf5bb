package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const EngineFPDF = "fpdf"

// Line heights and gaps in millimetres.
const (
	titleHeight  = 10.0
	bannerHeight = 10.0
	headerGap    = 7.0
	bodyHeight   = 6.0
	blockGap     = 3.0
)

// PDFRenderer draws a Layout with the core Arial font on A4 pages. Page
// breaks come from fpdf's automatic page break.
type PDFRenderer struct {
	// Compress toggles stream compression. Tests turn it off to read the text back.
	Compress bool
}

// NewPDFRenderer returns a renderer with compression on.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Compress: true}
}

func (r *PDFRenderer) Engine() string { return EngineFPDF }

func (r *PDFRenderer) Render(ctx context.Context, l Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("majalis", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252; feed text is UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, titleHeight, tr(l.Title), "", 0, "C", false, 0, "")
	pdf.Ln(headerGap)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, bannerHeight, tr(l.Banner), "", 0, "", false, 0, "")
	pdf.Ln(headerGap)

	pdf.SetFont("Arial", "", 11)
	for _, b := range l.Blocks {
		for _, line := range b.Lines {
			pdf.CellFormat(0, bodyHeight, tr(line), "", 1, "", false, 0, "")
		}
		pdf.Ln(blockGap)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
