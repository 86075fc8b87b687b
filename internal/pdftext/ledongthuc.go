package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/textnorm"
)

// LedongthucConverter reads the embedded text layer in pure Go. Scanned, image-only
// PDFs yield empty pages.
type LedongthucConverter struct {
	logger *slog.Logger
}

func NewLedongthucConverter(logger *slog.Logger) *LedongthucConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedongthucConverter{logger: logger}
}

func (c *LedongthucConverter) Name() string { return constants.ConverterLedongthuc }

func (c *LedongthucConverter) Convert(ctx context.Context, data []byte) (doc Document, err error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: parse pdf: %v", common.ErrInvalidInput, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: open pdf: %v", common.ErrInvalidInput, err)
	}

	numPages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			return Document{}, fmt.Errorf("read pdf page %d: %w", i, pageErr)
		}
		pages = append(pages, text)
	}

	doc = Document{Pages: pages, Text: textnorm.Normalize(pages...), PageCount: numPages}
	c.logger.Info("pdftext.convert.ok",
		"req_id", rid,
		"converter", c.Name(),
		"pages", numPages,
		"text_len", len(doc.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
