package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
)

const (
	pageMargin   = 72.0
	bodyWidth    = 410.0
	bodyFontSize = 12.0
	lineHeight   = 14.0
)

// PDFService renders transcript text as a single-column Letter document.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// Render lays text out left-aligned in a fixed 410pt column. title only
// sets document metadata.
func (s *PDFService) Render(title, text string) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetAuthor("lecturepdf", false)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", bodyFontSize)

	for _, paragraph := range strings.Split(strings.TrimSpace(text), "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			pdf.Ln(lineHeight)
			continue
		}
		pdf.MultiCell(bodyWidth, lineHeight, tr(paragraph), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
