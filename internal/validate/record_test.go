package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

func validRecord() entity.ExtractedRecord {
	return entity.ExtractedRecord{
		ProjectName:       "อบรมเชิงปฏิบัติการ",
		ResponsiblePerson: "ดร.วิภา",
		BudgetItems: []entity.BudgetItem{
			{ActivityName: "Training and Workshop", Description: "Venue rental (per day x 2)", Amount: 5000},
			{ActivityName: "General", Description: "Supplies (flat rate)", Amount: 300},
		},
	}
}

func TestRecord_Valid(t *testing.T) {
	assert.Empty(t, Record(validRecord()))
	assert.NoError(t, Error(Record(validRecord())))
}

func TestRecord_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.ExtractedRecord)
		want   []string
	}{
		{
			name:   "blank project name",
			mutate: func(r *entity.ExtractedRecord) { r.ProjectName = "   " },
			want:   []string{MsgProjectNameMissing},
		},
		{
			name:   "missing responsible person",
			mutate: func(r *entity.ExtractedRecord) { r.ResponsiblePerson = "" },
			want:   []string{MsgResponsiblePersonMissing},
		},
		{
			name:   "no items",
			mutate: func(r *entity.ExtractedRecord) { r.BudgetItems = nil },
			want:   []string{MsgNoBudgetItems},
		},
		{
			name: "per item checks use 1-based positions",
			mutate: func(r *entity.ExtractedRecord) {
				r.BudgetItems[1].ActivityName = ""
				r.BudgetItems[1].Amount = 0
			},
			want: []string{
				"Budget item 2: Activity name is missing",
				"Budget item 2: Amount must be greater than 0",
			},
		},
		{
			name:   "negative amount",
			mutate: func(r *entity.ExtractedRecord) { r.BudgetItems[0].Amount = -10 },
			want:   []string{"Budget item 1: Amount must be greater than 0"},
		},
		{
			name:   "NaN amount",
			mutate: func(r *entity.ExtractedRecord) { r.BudgetItems[0].Amount = math.NaN() },
			want:   []string{"Budget item 1: Amount must be greater than 0"},
		},
		{
			name: "checks are not short-circuited",
			mutate: func(r *entity.ExtractedRecord) {
				r.ProjectName = ""
				r.ResponsiblePerson = ""
				r.BudgetItems = []entity.BudgetItem{}
			},
			want: []string{MsgProjectNameMissing, MsgResponsiblePersonMissing, MsgNoBudgetItems},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			assert.Equal(t, tt.want, Record(rec))
		})
	}
}

func TestRecord_EmptyItemsAlwaysReported(t *testing.T) {
	rec := validRecord()
	rec.BudgetItems = nil
	assert.Contains(t, Record(rec), MsgNoBudgetItems)
}

func TestError_WrapsViolations(t *testing.T) {
	rec := validRecord()
	rec.ProjectName = ""

	err := Error(Record(rec))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Equal(t, []string{MsgProjectNameMissing}, common.Violations(err))
}
