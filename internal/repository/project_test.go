package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, Migrate(ctx, db))
	return db
}

func sampleRecord(name string) entity.ExtractedRecord {
	return entity.ExtractedRecord{
		ProjectName:       name,
		ResponsiblePerson: "ผศ.ดร. สมชาย ใจดี",
		BudgetItems: []entity.BudgetItem{
			{ActivityName: "Training and Workshop", Description: "Venue rental (per day x 2)", Amount: 5000},
			{ActivityName: "Training and Workshop", Description: "Materials (lump sum)", Amount: 1500},
			{ActivityName: "ERP System Setup", Description: "License (annual)", Amount: 20000},
		},
	}
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(openTestDB(t), nil)

	rec := sampleRecord("พัฒนาระบบ ERP")
	id, err := repo.Create(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, rec, got.Record())
	assert.Equal(t, 26500.0, got.Total())
}

func TestProjectRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(openTestDB(t), nil)

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := repo.Create(ctx, sampleRecord("first"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, entity.ExtractedRecord{
		ProjectName:       "second",
		ResponsiblePerson: "นาย ข",
		BudgetItems:       []entity.BudgetItem{{ActivityName: "General", Description: "Supplies", Amount: 300}},
	})
	require.NoError(t, err)

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second, projects[0].ID)
	assert.Equal(t, first, projects[1].ID)
	assert.Len(t, projects[0].BudgetItems, 1)
	assert.Equal(t, sampleRecord("first").BudgetItems, projects[1].BudgetItems)
}

func TestProjectRepository_GetMissing(t *testing.T) {
	repo := NewProjectRepository(openTestDB(t), nil)

	_, err := repo.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestProjectRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProjectRepository(db, nil)

	id, err := repo.Create(ctx, sampleRecord("to delete"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.Get(ctx, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	var n int
	require.NoError(t, db.Driver().DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM budget_items").Scan(&n))
	assert.Zero(t, n)

	err = repo.Delete(ctx, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestProjectRepository_CreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProjectRepository(db, nil)

	_, err := db.Driver().DB().ExecContext(ctx, "DROP TABLE budget_items")
	require.NoError(t, err)

	_, err = repo.Create(ctx, sampleRecord("half written"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))

	var n int
	require.NoError(t, db.Driver().DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&n))
	assert.Zero(t, n)
}

func TestProjectRepository_EmptyItems(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(openTestDB(t), nil)

	id, err := repo.Create(ctx, entity.ExtractedRecord{ProjectName: "x", ResponsiblePerson: "y"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.BudgetItems)
	assert.Empty(t, got.BudgetItems)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))
}

func TestDB_HealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), 0))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:budgets.db?_pragma=foreign_keys(1)", sqliteDSN("budgets.db"))
	assert.Equal(t, "file:budgets.db?mode=rwc&_pragma=foreign_keys(1)", sqliteDSN("file:budgets.db?mode=rwc"))
	assert.Equal(t, "file:x.db?_pragma=foreign_keys(1)", sqliteDSN("file:x.db?_pragma=foreign_keys(1)"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
