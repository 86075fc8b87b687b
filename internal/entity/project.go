package entity

import "time"

// GeneralActivity is assigned to items found outside any activity heading.
const GeneralActivity = "General"

// BudgetItem is one line of a project budget.
type BudgetItem struct {
	ActivityName string  `json:"activity_name"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
}

// ExtractedRecord is the output of an extraction backend, before it is persisted.
type ExtractedRecord struct {
	ProjectName       string       `json:"project_name"`
	ResponsiblePerson string       `json:"responsible_person"`
	BudgetItems       []BudgetItem `json:"budget_items"`
}

func (r ExtractedRecord) Total() float64 {
	return sumItems(r.BudgetItems)
}

// Project represents a persisted project with its budget items.
type Project struct {
	ID                int64        `json:"id"`
	ProjectName       string       `json:"project_name"`
	ResponsiblePerson string       `json:"responsible_person"`
	CreatedAt         time.Time    `json:"created_at"`
	BudgetItems       []BudgetItem `json:"budget_items"`
}

func (p Project) Total() float64 {
	return sumItems(p.BudgetItems)
}

// Record returns the project as an editable record.
func (p Project) Record() ExtractedRecord {
	items := make([]BudgetItem, len(p.BudgetItems))
	copy(items, p.BudgetItems)
	return ExtractedRecord{
		ProjectName:       p.ProjectName,
		ResponsiblePerson: p.ResponsiblePerson,
		BudgetItems:       items,
	}
}

func sumItems(items []BudgetItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total
}
