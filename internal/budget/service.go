// Package budget is the application API: extract a record from a PDF, review it, save it.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/export"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/pdftext"
	"github.com/joseph-ayodele/budget-extractor/internal/repository"
	"github.com/joseph-ayodele/budget-extractor/internal/validate"
)

const SavedMessage = "Data saved successfully"

type Service struct {
	converter      pdftext.Converter
	extractors     map[string]extract.Extractor
	defaultBackend string
	projects       repository.ProjectRepository
	exporter       *export.Service
	logger         *slog.Logger
}

// NewService registers extractors by Name(). defaultBackend must be one of them.
func NewService(converter pdftext.Converter, projects repository.ProjectRepository, extractors []extract.Extractor, defaultBackend string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]extract.Extractor, len(extractors))
	for _, e := range extractors {
		byName[e.Name()] = e
	}
	if defaultBackend == "" {
		defaultBackend = constants.BackendRegex
	}
	if _, ok := byName[defaultBackend]; !ok {
		return nil, fmt.Errorf("default backend %q is not configured", defaultBackend)
	}
	return &Service{
		converter:      converter,
		extractors:     byName,
		defaultBackend: defaultBackend,
		projects:       projects,
		exporter:       export.NewService(projects, logger),
		logger:         logger,
	}, nil
}

// Backends lists the configured backend names, sorted.
func (s *Service) Backends() []string {
	names := make([]string, 0, len(s.extractors))
	for n := range s.extractors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Service) DefaultBackend() string { return s.defaultBackend }

// Extract converts an uploaded PDF to text and runs the chosen backend on it. An empty
// backend selects the default. The record is returned even when it fails validation.
func (s *Service) Extract(ctx context.Context, filename string, data []byte, backend string) (entity.ExtractionResult, error) {
	rid := common.RequestIDFromContext(ctx)
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()

	if !constants.IsPDF(filename) {
		return entity.ExtractionResult{}, fmt.Errorf("%w: only .pdf files are accepted, got %q", common.ErrInvalidInput, filename)
	}
	if len(data) == 0 {
		return entity.ExtractionResult{}, fmt.Errorf("%w: %s is empty", common.ErrInvalidInput, filename)
	}
	// fail fast on an unknown backend before doing any pdf work
	if _, err := s.extractor(backend); err != nil {
		return entity.ExtractionResult{}, err
	}

	pages, err := pdftext.Inspect(data)
	if err != nil {
		s.logger.Warn("budget.extract.invalid_pdf", "req_id", rid, "filename", filename, "error", err)
		return entity.ExtractionResult{}, err
	}

	doc, err := s.converter.Convert(ctx, data)
	if err != nil {
		s.logger.Error("budget.extract.convert_failed", "req_id", rid, "filename", filename, "error", err)
		return entity.ExtractionResult{}, fmt.Errorf("convert %s: %w", filename, err)
	}

	res, err := s.ExtractText(ctx, doc.Text, backend)
	if err != nil {
		return entity.ExtractionResult{}, err
	}
	res.Filename = filename
	res.Pages = pages

	s.logger.Info("budget.extract.ok",
		"req_id", rid,
		"filename", filename,
		"backend", res.Backend,
		"pages", pages,
		"items", len(res.Record.BudgetItems),
		"violations", len(res.ValidationErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ExtractText runs a backend on already converted document text.
func (s *Service) ExtractText(ctx context.Context, text, backend string) (entity.ExtractionResult, error) {
	ex, err := s.extractor(backend)
	if err != nil {
		return entity.ExtractionResult{}, err
	}

	rec, err := ex.Extract(ctx, text)
	if err != nil {
		return entity.ExtractionResult{}, err
	}
	rec = clean(rec)

	return entity.ExtractionResult{
		Record:           rec,
		ValidationErrors: validate.Record(rec),
		Backend:          ex.Name(),
	}, nil
}

func (s *Service) extractor(backend string) (extract.Extractor, error) {
	if backend == "" {
		backend = s.defaultBackend
	}
	ex, ok := s.extractors[backend]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q (available: %s)", common.ErrInvalidInput, backend, strings.Join(s.Backends(), ", "))
	}
	return ex, nil
}

// Save re-validates rec and persists it atomically. When rec is invalid nothing is
// written and the violations are returned along with a validation error.
func (s *Service) Save(ctx context.Context, rec entity.ExtractedRecord) (int64, []string, error) {
	rid := common.RequestIDFromContext(ctx)
	ctx = common.WithRequestID(ctx, rid)

	rec = clean(rec)
	if violations := validate.Record(rec); len(violations) > 0 {
		s.logger.Info("budget.save.rejected", "req_id", rid, "violations", violations)
		return 0, violations, validate.Error(violations)
	}

	id, err := s.projects.Create(ctx, rec)
	if err != nil {
		return 0, nil, err
	}
	s.logger.Info("budget.save.ok", "req_id", rid, "project_id", id, "items", len(rec.BudgetItems))
	return id, nil, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]entity.Project, error) {
	return s.projects.List(ctx)
}

func (s *Service) GetProject(ctx context.Context, id int64) (entity.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	return s.projects.Delete(ctx, id)
}

func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	return s.exporter.ExportProjectsXLSX(ctx)
}

// clean trims the text fields and never leaves BudgetItems nil. It copies the items.
func clean(rec entity.ExtractedRecord) entity.ExtractedRecord {
	out := entity.ExtractedRecord{
		ProjectName:       strings.TrimSpace(rec.ProjectName),
		ResponsiblePerson: strings.TrimSpace(rec.ResponsiblePerson),
		BudgetItems:       make([]entity.BudgetItem, len(rec.BudgetItems)),
	}
	for i, it := range rec.BudgetItems {
		out.BudgetItems[i] = entity.BudgetItem{
			ActivityName: strings.TrimSpace(it.ActivityName),
			Description:  strings.TrimSpace(it.Description),
			Amount:       it.Amount,
		}
	}
	return out
}
