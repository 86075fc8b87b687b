package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/pdftext"
	"github.com/joseph-ayodele/budget-extractor/internal/repository"
)

const proposalText = "1. ชื่อโครงการ  อบรมเชิงปฏิบัติการ AI\n" +
	"2. ผู้รับผิดชอบ ดร.วิภา แสงทอง หลักสูตรวิศวกรรมคอมพิวเตอร์\n" +
	"14. รายละเอียดงบประมาณ\n" +
	"1. Workshop\n" +
	"1. Venue (2 days) 3,000\n" +
	"2. Lunch (40 x 100) 4,000\n" +
	"รวมทั้งหมด 7,000 บาท\n"

type textConverter struct{ text string }

func (c textConverter) Name() string { return "stub" }

func (c textConverter) Convert(context.Context, []byte) (pdftext.Document, error) {
	return pdftext.Document{Pages: []string{c.text}, Text: c.text, PageCount: 1}, nil
}

func newTestService(t *testing.T) (*budget.Service, *repository.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, repository.Migrate(ctx, db))

	rx, err := extract.NewRegexExtractor(extract.DefaultRules(), nil)
	require.NoError(t, err)

	svc, err := budget.NewService(textConverter{text: proposalText}, repository.NewProjectRepository(db, nil),
		[]extract.Extractor{rx}, "", nil)
	require.NoError(t, err)
	return svc, db
}
