package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// RegexExtractor implements Extractor with the field locators and the budget parser.
type RegexExtractor struct {
	projectName       Locator
	responsiblePerson Locator
	budgetSection     Locator
	parser            *BudgetParser
	logger            *slog.Logger
}

func NewRegexExtractor(rules Rules, logger *slog.Logger) (*RegexExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := rules.compile()
	if err != nil {
		return nil, err
	}
	return &RegexExtractor{
		projectName:       newProjectNameLocator(c),
		responsiblePerson: newResponsiblePersonLocator(c),
		budgetSection:     newBudgetSectionLocator(c),
		parser:            newBudgetParser(c),
		logger:            logger,
	}, nil
}

func (e *RegexExtractor) Name() string { return constants.BackendRegex }

// Extract never returns an error; missing sections surface as empty fields.
func (e *RegexExtractor) Extract(ctx context.Context, text string) (entity.ExtractedRecord, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	name, nameOK := e.projectName.Locate(text)
	person, personOK := e.responsiblePerson.Locate(text)
	block, blockOK := e.budgetSection.Locate(text)

	var items []entity.BudgetItem
	if blockOK {
		items = e.parser.Parse(block)
	}
	if items == nil {
		items = []entity.BudgetItem{}
	}

	e.logger.Info("extract.regex.ok",
		"req_id", rid,
		"text_len", len(text),
		"project_name_found", nameOK,
		"responsible_person_found", personOK,
		"budget_section_found", blockOK,
		"items", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.ExtractedRecord{
		ProjectName:       name,
		ResponsiblePerson: person,
		BudgetItems:       items,
	}, nil
}

// ParseBudget exposes the budget parser on an already located block.
func (e *RegexExtractor) ParseBudget(block string) []entity.BudgetItem {
	return e.parser.Parse(block)
}

// Locators returns the field locators in document order.
func (e *RegexExtractor) Locators() []Locator {
	return []Locator{e.projectName, e.responsiblePerson, e.budgetSection}
}
