package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ProjectsColumns holds the columns for the "projects" table.
	ProjectsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "project_name", Type: field.TypeString, Size: 2147483647},
		{Name: "responsible_person", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ProjectsTable holds the schema information for the "projects" table.
	ProjectsTable = &schema.Table{
		Name:       "projects",
		Columns:    ProjectsColumns,
		PrimaryKey: []*schema.Column{ProjectsColumns[0]},
	}
	// BudgetItemsColumns holds the columns for the "budget_items" table.
	BudgetItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "activity_name", Type: field.TypeString, Size: 2147483647},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "amount", Type: field.TypeFloat64},
		{Name: "project_id", Type: field.TypeInt64},
	}
	// BudgetItemsTable holds the schema information for the "budget_items" table.
	BudgetItemsTable = &schema.Table{
		Name:       "budget_items",
		Columns:    BudgetItemsColumns,
		PrimaryKey: []*schema.Column{BudgetItemsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "budget_items_projects_budget_items",
				Columns:    []*schema.Column{BudgetItemsColumns[4]},
				RefColumns: []*schema.Column{ProjectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "budgetitem_project_id",
				Unique:  false,
				Columns: []*schema.Column{BudgetItemsColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ProjectsTable,
		BudgetItemsTable,
	}
)

func init() {
	BudgetItemsTable.ForeignKeys[0].RefTable = ProjectsTable
}

// Migrate creates or updates the schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		db.logger.Error("repo.migrate.failed", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	db.logger.Info("repo.migrate.ok", "tables", len(Tables))
	return nil
}
