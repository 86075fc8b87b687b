package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/repository"
)

const (
	ProjectsSheet = "Projects"
	ItemsSheet    = "Budget Items"
	moneyFormat   = "#,##0.00"
)

// Service is a tiny façade over the project repository that produces XLSX bytes for exports.
type Service struct {
	projects repository.ProjectRepository
	logger   *slog.Logger
}

func NewService(repo repository.ProjectRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{projects: repo, logger: logger}
}

// ExportProjectsXLSX returns a workbook with one row per project and one row per budget item.
func (s *Service) ExportProjectsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	b, err := WriteProjects(projects)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "req_id", rid, "error", err)
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"req_id", rid,
		"projects", len(projects),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// WriteProjects renders projects into XLSX bytes.
func WriteProjects(projects []entity.Project) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default "Sheet1" becomes the projects sheet
	if err := f.SetSheetName(f.GetSheetName(0), ProjectsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(ProjectsSheet)
	f.SetActiveSheet(activeIndex)

	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(moneyFormat)})
	if err != nil {
		return nil, err
	}

	writeRow := func(sheet string, row int, values ...any) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(sheet, cell, &values)
	}

	writeRow(ProjectsSheet, 1, "ID", "Project Name", "Responsible Person", "Created At", "Items", "Total (THB)")
	writeRow(ItemsSheet, 1, "Project ID", "Project Name", "Activity", "Description", "Amount (THB)")

	itemRow := 2
	for i, p := range projects {
		row := i + 2
		writeRow(ProjectsSheet, row,
			p.ID,
			p.ProjectName,
			p.ResponsiblePerson,
			p.CreatedAt.UTC().Format(time.RFC3339),
			len(p.BudgetItems),
			p.Total(),
		)
		for _, it := range p.BudgetItems {
			writeRow(ItemsSheet, itemRow, p.ID, p.ProjectName, it.ActivityName, it.Description, it.Amount)
			itemRow++
		}
	}

	if len(projects) > 0 {
		_ = f.SetCellStyle(ProjectsSheet, "F2", fmt.Sprintf("F%d", len(projects)+1), money)
	}
	if itemRow > 2 {
		_ = f.SetCellStyle(ItemsSheet, "E2", fmt.Sprintf("E%d", itemRow-1), money)
	}

	// Widen a few columns
	_ = f.SetColWidth(ProjectsSheet, "B", "C", 40)
	_ = f.SetColWidth(ProjectsSheet, "D", "D", 22)
	_ = f.SetColWidth(ProjectsSheet, "F", "F", 16)
	_ = f.SetColWidth(ItemsSheet, "B", "B", 40)
	_ = f.SetColWidth(ItemsSheet, "C", "D", 36)
	_ = f.SetColWidth(ItemsSheet, "E", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func ptr[T any](v T) *T { return &v }
