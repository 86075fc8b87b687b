package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/textnorm"
)

// PopplerConverter shells out to poppler's pdftotext, which keeps Thai layout better
// than the pure-Go reader on some documents.
type PopplerConverter struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

// NewPopplerConverter uses exec when runner is nil.
func NewPopplerConverter(bin string, runner Runner, logger *slog.Logger) *PopplerConverter {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &PopplerConverter{bin: bin, runner: runner, logger: logger}
}

func (c *PopplerConverter) Name() string { return constants.ConverterPdftotext }

func (c *PopplerConverter) Convert(ctx context.Context, data []byte) (Document, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	tmp, err := os.CreateTemp("", "budgetx-*.pdf")
	if err != nil {
		return Document{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func(path string) {
		if err := os.Remove(path); err != nil {
			c.logger.Warn("pdftext.tempfile.remove_failed", "path", path, "error", err)
		}
	}(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Document{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Document{}, fmt.Errorf("close temp file: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := c.runner.Run(ctx, c.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w: %s", c.bin, err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	pages := splitPages(string(out))
	doc := Document{Pages: pages, Text: textnorm.Normalize(pages...), PageCount: len(pages)}
	c.logger.Info("pdftext.convert.ok",
		"req_id", rid,
		"converter", c.Name(),
		"pages", doc.PageCount,
		"text_len", len(doc.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// A form feed separates pages; pdftotext also ends the last page with one.
func splitPages(out string) []string {
	out = strings.TrimSuffix(out, "\f")
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\f")
}
