// Package pdftext turns uploaded PDF bytes into the text the extractors work on.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
)

// Document is the text layer of a PDF. Text is the normalized join of Pages.
type Document struct {
	Pages     []string
	Text      string
	PageCount int
}

type Converter interface {
	Name() string
	Convert(ctx context.Context, data []byte) (Document, error)
}

type Config struct {
	Converter string // ledongthuc | pdftotext | tesseract
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	OCR       OCRConfig
}

// New returns the converter named by cfg.Converter.
func New(cfg Config, logger *slog.Logger) (Converter, error) {
	switch cfg.Converter {
	case "", constants.ConverterLedongthuc:
		return NewLedongthucConverter(logger), nil
	case constants.ConverterPdftotext:
		return NewPopplerConverter(cfg.Pdftotext, nil, logger), nil
	case constants.ConverterTesseract:
		return NewOCRConverter(cfg.OCR, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown pdf converter %q", cfg.Converter)
	}
}

// Inspect checks that data is a readable PDF and returns its page count.
func Inspect(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty pdf", common.ErrInvalidInput)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: read pdf: %v", common.ErrInvalidInput, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("%w: page count: %v", common.ErrInvalidInput, err)
	}
	return ctx.PageCount, nil
}
