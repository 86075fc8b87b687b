package budget

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/async"
	"github.com/joseph-ayodele/budget-extractor/internal/testutil"
)

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testutil.MinimalPDF("page"), 0o644))
	return path
}

func TestFileProcessor_Save(t *testing.T) {
	f := newFixture(t, thaiDocument)
	path := writePDF(t, t.TempDir(), "a.pdf")

	res := NewFileProcessor(f.svc, "", true, 0).Process(context.Background(), async.NewJob(path))
	require.NoError(t, res.Err)
	assert.Equal(t, constants.JobStatusSaved, res.Status)
	assert.Positive(t, res.ProjectID)

	all, err := f.svc.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileProcessor_ExtractOnly(t *testing.T) {
	f := newFixture(t, thaiDocument)
	path := writePDF(t, t.TempDir(), "a.pdf")

	res := NewFileProcessor(f.svc, "regex", false, 0).Process(context.Background(), async.NewJob(path))
	require.NoError(t, res.Err)
	assert.Equal(t, constants.JobStatusExtracted, res.Status)
	assert.Zero(t, res.ProjectID)
}

func TestFileProcessor_InvalidIsNotSaved(t *testing.T) {
	f := newFixture(t, "nothing useful")
	path := writePDF(t, t.TempDir(), "a.pdf")

	res := NewFileProcessor(f.svc, "", true, 0).Process(context.Background(), async.NewJob(path))
	require.NoError(t, res.Err)
	assert.Equal(t, constants.JobStatusInvalid, res.Status)
	assert.NotEmpty(t, res.Extraction.ValidationErrors)

	all, err := f.svc.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileProcessor_Failures(t *testing.T) {
	f := newFixture(t, thaiDocument)
	dir := t.TempDir()
	path := writePDF(t, dir, "a.pdf")

	res := NewFileProcessor(f.svc, "", false, 0).Process(context.Background(), async.NewJob(filepath.Join(dir, "missing.pdf")))
	assert.Equal(t, constants.JobStatusFailed, res.Status)
	assert.Error(t, res.Err)

	res = NewFileProcessor(f.svc, "", false, 10).Process(context.Background(), async.NewJob(path))
	assert.Equal(t, constants.JobStatusFailed, res.Status)

	res = NewFileProcessor(f.svc, "openai", false, 0).Process(context.Background(), async.NewJob(path))
	assert.Equal(t, constants.JobStatusFailed, res.Status)
}
