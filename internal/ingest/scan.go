// Package ingest discovers PDF files on disk for batch extraction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/constants"
)

type ScanOptions struct {
	SkipHidden bool
	// MaxBytes skips larger files; zero means no limit.
	MaxBytes int64
}

type ScanStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// Scan walks root and returns the PDF files under it in lexical order. Unreadable entries
// are counted and logged, not returned as errors.
func Scan(ctx context.Context, root string, opts ScanOptions, logger *slog.Logger) ([]string, ScanStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, ScanStats{}, errors.New("root path is required")
	}

	var paths []string
	var stats ScanStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("ingest.scan.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsPDF(path) {
			return nil
		}
		if opts.MaxBytes > 0 {
			info, err := d.Info()
			if err != nil {
				stats.Failed++
				return nil
			}
			if info.Size() > opts.MaxBytes {
				logger.Warn("ingest.scan.too_large", "path", path, "size", info.Size(), "limit", opts.MaxBytes)
				stats.Skipped++
				return nil
			}
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	logger.Info("ingest.scan.ok", "root", root, "scanned", stats.Scanned, "matched", stats.Matched,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return paths, stats, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
