// Package validate checks an extracted record before it may be persisted.
package validate

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const (
	MsgProjectNameMissing       = "Project name is empty or not found"
	MsgResponsiblePersonMissing = "Responsible person is empty or not found"
	MsgNoBudgetItems            = "No budget items found"
)

// Record returns every violation found in rec, in a stable order. An empty result means
// the record may be saved. All checks run; none short-circuits another.
func Record(rec entity.ExtractedRecord) []string {
	violations := []string{}
	if strings.TrimSpace(rec.ProjectName) == "" {
		violations = append(violations, MsgProjectNameMissing)
	}
	if strings.TrimSpace(rec.ResponsiblePerson) == "" {
		violations = append(violations, MsgResponsiblePersonMissing)
	}
	if len(rec.BudgetItems) == 0 {
		return append(violations, MsgNoBudgetItems)
	}
	for i, item := range rec.BudgetItems {
		if strings.TrimSpace(item.ActivityName) == "" {
			violations = append(violations, fmt.Sprintf("Budget item %d: Activity name is missing", i+1))
		}
		if !(item.Amount > 0) {
			violations = append(violations, fmt.Sprintf("Budget item %d: Amount must be greater than 0", i+1))
		}
	}
	return violations
}

// Error wraps violations into a *common.ValidationError; nil when there are none.
func Error(violations []string) error {
	return common.NewValidationError(violations)
}
