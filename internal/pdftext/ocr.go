package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/textnorm"
)

// OCRConfig drives the scanned-PDF path: pdftoppm rasterizes, tesseract reads each page.
type OCRConfig struct {
	Pdftoppm  string // if empty -> "pdftoppm"
	Tesseract string // if empty -> "tesseract"
	Lang      string // default "tha+eng"
	DPI       int    // default 300
	MaxPages  int    // 0 = no limit
	PSM       int    // 0 leaves tesseract's default
}

// OCRConverter is for proposals that were scanned and have no text layer.
type OCRConverter struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewOCRConverter(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCRConverter {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "tha+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &OCRConverter{cfg: cfg, runner: runner, logger: logger}
}

func (c *OCRConverter) Name() string { return constants.ConverterTesseract }

func (c *OCRConverter) Convert(ctx context.Context, data []byte) (Document, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "budgetx-ocr-*")
	if err != nil {
		return Document{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			c.logger.Warn("pdftext.tempdir.remove_failed", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return Document{}, fmt.Errorf("write temp file: %w", err)
	}

	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm, "-r", strconv.Itoa(c.cfg.DPI), "-png", in, prefix)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w: %s", c.cfg.Pdftoppm, err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	images, err := renderedPages(prefix)
	if err != nil {
		return Document{}, err
	}
	if c.cfg.MaxPages > 0 && len(images) > c.cfg.MaxPages {
		c.logger.Warn("pdftext.ocr.pages_truncated", "req_id", rid, "rendered", len(images), "max_pages", c.cfg.MaxPages)
		images = images[:c.cfg.MaxPages]
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		txt, err := c.recognize(ctx, img)
		if err != nil {
			return Document{}, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		pages = append(pages, txt)
	}

	doc := Document{Pages: pages, Text: textnorm.Normalize(pages...), PageCount: len(pages)}
	c.logger.Info("pdftext.convert.ok",
		"req_id", rid,
		"converter", c.Name(),
		"lang", c.cfg.Lang,
		"pages", doc.PageCount,
		"text_len", len(doc.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (c *OCRConverter) recognize(ctx context.Context, img string) (string, error) {
	// tesseract <img> stdout -l <lang> [--psm N]
	args := []string{img, "stdout", "-l", c.cfg.Lang}
	if c.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(c.cfg.PSM))
	}
	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", c.cfg.Tesseract, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return strings.TrimRight(string(out), "\f\n "), nil
}

// pdftoppm names its output prefix-1.png, prefix-2.png, ... and zero-pads the
// number once there are ten or more pages, so sort by the parsed page number.
func renderedPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no images", common.ErrInvalidInput)
	}
	pageNum := func(p string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"-"), ".png")
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}
	sort.Slice(matches, func(i, j int) bool { return pageNum(matches[i]) < pageNum(matches[j]) })
	return matches, nil
}
