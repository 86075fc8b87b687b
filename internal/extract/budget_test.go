package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const twoActivityBlock = "1. Training and Workshop\n" +
	"1. Venue rental (per day x 2) 5,000\n" +
	"2. Materials (lump sum) 1,500\n" +
	"2. ERP System Setup\n" +
	"1. License (annual) 20,000"

func newTestExtractor(t *testing.T, rules Rules) *RegexExtractor {
	t.Helper()
	e, err := NewRegexExtractor(rules, nil)
	require.NoError(t, err)
	return e
}

func TestParseBudget_GroupsItemsUnderActivities(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget(twoActivityBlock)

	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "Training and Workshop", Description: "Venue rental (per day x 2)", Amount: 5000},
		{ActivityName: "Training and Workshop", Description: "Materials (lump sum)", Amount: 1500},
		{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
	}, items)
}

func TestParseBudget_NoHeadersFallsBackToGeneral(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("1. Supplies (flat rate) 300")

	require.Len(t, items, 1)
	assert.Equal(t, entity.GeneralActivity, items[0].ActivityName)
	assert.Equal(t, "Supplies (flat rate)", items[0].Description)
	assert.Equal(t, 300.0, items[0].Amount)
}

func TestParseBudget_StripsThousandsSeparators(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("5. Materials (unit cost) 1,250")

	require.Len(t, items, 1)
	assert.Equal(t, 1250.0, items[0].Amount)
	assert.Equal(t, "Materials (unit cost)", items[0].Description)
}

func TestParseBudget_HeadersWithoutItemsFallBackToWholeBlock(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	block := "1. Pens (box of 12) 200\n2. Training and Workshop\n"
	items := e.ParseBudget(block)

	require.Len(t, items, 1)
	assert.Equal(t, entity.BudgetItem{ActivityName: "General", Description: "Pens (box of 12)", Amount: 200}, items[0])
}

func TestParseBudget_EmptyActivityContributesNothing(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	block := "1. Training and Workshop\n2. ERP System Setup\n1. License (annual) 20,000"
	items := e.ParseBudget(block)

	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
	}, items)
}

func TestParseBudget_SkipsUnparseableAmounts(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("1. Broken (x) ,,,\n2. Other (y) 100")

	require.Len(t, items, 1)
	assert.Equal(t, "Other (y)", items[0].Description)
	assert.Equal(t, 100.0, items[0].Amount)
}

func TestParseBudget_KeepsZeroAmountsForValidation(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("1. Donated room (in kind) 0")

	require.Len(t, items, 1)
	assert.Zero(t, items[0].Amount)
}

func TestParseBudget_BlankCalculationUsesItemText(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("1. Snacks ( ) 450")

	require.Len(t, items, 1)
	assert.Equal(t, "Snacks", items[0].Description)
}

func TestParseBudget_ItemContainingAndIsNotAHeader(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	block := "1. Training and Workshop\n" +
		"1. Paper and pens (lump sum) 300\n" +
		"2. ERP System Setup\n" +
		"1. License (annual) 20,000"
	items := e.ParseBudget(block)

	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "Training and Workshop", Description: "Paper and pens (lump sum)", Amount: 300},
		{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
	}, items)
}

func TestParseBudget_LiteralBoundary(t *testing.T) {
	rules := DefaultRules()
	rules.SectionBoundary = BoundaryLiteral
	e := newTestExtractor(t, rules)

	items := e.ParseBudget(twoActivityBlock)

	// The raw "2." search stops the first section at the "2. Materials" item.
	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "Training and Workshop", Description: "Venue rental (per day x 2)", Amount: 5000},
		{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
	}, items)
}

func TestParseBudget_Idempotent(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	first := e.ParseBudget(twoActivityBlock)
	second := e.ParseBudget(twoActivityBlock)

	assert.Equal(t, first, second)
	for _, it := range first {
		assert.Greater(t, it.Amount, 0.0)
		assert.NotEmpty(t, it.ActivityName)
	}
}

func TestParseBudget_EmptyBlock(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())
	assert.Empty(t, e.ParseBudget(""))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1,250", 1250, true},
		{"20,000", 20000, true},
		{"300", 300, true},
		{"1,000,000", 1000000, true},
		{"๑,๒๕๐", 1250, true},
		{",", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseBudget_ThaiNumerals(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	t.Run("thai ordinal and amount", func(t *testing.T) {
		items := e.ParseBudget("๑. วัสดุ (เหมาจ่าย) ๑,๕๐๐")
		assert.Equal(t, []entity.BudgetItem{
			{ActivityName: "General", Description: "วัสดุ (เหมาจ่าย)", Amount: 1500},
		}, items)
	})
	t.Run("ascii ordinal with thai amount", func(t *testing.T) {
		items := e.ParseBudget("1. ค่าอาหาร (๕๐ คน x ๑๐๐ บาท) ๕,๐๐๐")
		require.Len(t, items, 1)
		assert.Equal(t, 5000.0, items[0].Amount)
		assert.Equal(t, "ค่าอาหาร (๕๐ คน x ๑๐๐ บาท)", items[0].Description)
	})
	t.Run("thai header ordinals bound sections", func(t *testing.T) {
		block := "๑. Training and Workshop\n" +
			"๑. Venue (per day) ๒,๐๐๐\n" +
			"๒. ERP System Setup\n" +
			"๑. License (annual) ๒๐,๐๐๐"
		items := e.ParseBudget(block)
		assert.Equal(t, []entity.BudgetItem{
			{ActivityName: "Training and Workshop", Description: "Venue (per day)", Amount: 2000},
			{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
		}, items)
	})
}

func TestParseBudget_NonBreakingSpaces(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	items := e.ParseBudget("1.\u00a0Training\u00a0and Workshop\n1. Venue\u00a0(x)\u00a0100")

	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "Training and Workshop", Description: "Venue (x)", Amount: 100},
	}, items)
}

func TestParseBudget_SkippedOrdinalEndsAtNextHeader(t *testing.T) {
	e := newTestExtractor(t, DefaultRules())

	block := "1. Training and Workshop\n" +
		"1. Venue (per day) 2,000\n" +
		"3. ERP System Setup\n" +
		"1. License (annual) 20,000"
	items := e.ParseBudget(block)

	assert.Equal(t, []entity.BudgetItem{
		{ActivityName: "Training and Workshop", Description: "Venue (per day)", Amount: 2000},
		{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
	}, items)
}
