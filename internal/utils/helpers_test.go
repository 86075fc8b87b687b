package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

func TestFormatBaht(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234.56, "฿1,234.56"},
		{0, "฿0.00"},
		{300, "฿300.00"},
		{1000, "฿1,000.00"},
		{26500, "฿26,500.00"},
		{1234567.891, "฿1,234,567.89"},
		{-1500.5, "-฿1,500.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBaht(tt.in), "%v", tt.in)
	}
}

func TestRecordPBRoundTrip(t *testing.T) {
	rec := entity.ExtractedRecord{
		ProjectName:       "ค่ายวิชาการ",
		ResponsiblePerson: "ดร.วิภา",
		BudgetItems:       []entity.BudgetItem{{ActivityName: "General", Description: "Supplies (flat rate)", Amount: 300}},
	}
	s, err := ToPBStruct(rec)
	require.NoError(t, err)

	got, err := RecordFromPB(s)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestToPBProject_IncludesTotal(t *testing.T) {
	p := entity.Project{
		ID: 7, ProjectName: "x", ResponsiblePerson: "y", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		BudgetItems: []entity.BudgetItem{{ActivityName: "a", Amount: 100}, {ActivityName: "b", Amount: 50}},
	}
	s, err := ToPBProject(p)
	require.NoError(t, err)
	assert.Equal(t, 150.0, s.Fields["total"].GetNumberValue())
	assert.Equal(t, 7.0, s.Fields["id"].GetNumberValue())
	assert.Len(t, s.Fields["budget_items"].GetListValue().GetValues(), 2)
}
