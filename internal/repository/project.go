package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

type ProjectRepository interface {
	// Create stores the project and its items in one transaction and returns the new id.
	Create(ctx context.Context, rec entity.ExtractedRecord) (int64, error)
	// List returns every project, newest first, each with its items in insertion order.
	List(ctx context.Context) ([]entity.Project, error)
	Get(ctx context.Context, id int64) (entity.Project, error)
	Delete(ctx context.Context, id int64) error
}

type projectRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewProjectRepository(db *DB, logger *slog.Logger) ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &projectRepository{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (r *projectRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *projectRepository) Create(ctx context.Context, rec entity.ExtractedRecord) (id int64, err error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	tx, err := r.db.Driver().Tx(ctx)
	if err != nil {
		r.logger.Error("repo.project.create_failed", "req_id", rid, "stage", "begin", "error", err)
		return 0, fmt.Errorf("%w: begin tx: %v", common.ErrPersistence, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("repo.project.rollback_failed", "req_id", rid, "error", rbErr)
		}
		r.logger.Error("repo.project.create_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
	}()

	q, args := r.builder().Insert(ProjectsTable.Name).
		Columns("project_name", "responsible_person", "created_at").
		Values(rec.ProjectName, rec.ResponsiblePerson, r.now()).
		Returning("id").
		Query()
	var rows entsql.Rows
	if err = tx.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("%w: insert project: %v", common.ErrPersistence, err)
	}
	id, err = scanID(&rows)
	if err != nil {
		return 0, fmt.Errorf("%w: insert project: %v", common.ErrPersistence, err)
	}

	for i, item := range rec.BudgetItems {
		q, args := r.builder().Insert(BudgetItemsTable.Name).
			Columns("project_id", "activity_name", "description", "amount").
			Values(id, item.ActivityName, item.Description, item.Amount).
			Query()
		if err = tx.Exec(ctx, q, args, nil); err != nil {
			return 0, fmt.Errorf("%w: insert budget item %d: %v", common.ErrPersistence, i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", common.ErrPersistence, err)
	}

	r.logger.Info("repo.project.created",
		"req_id", rid,
		"project_id", id,
		"items", len(rec.BudgetItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return id, nil
}

func scanID(rows *entsql.Rows) (int64, error) {
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("no id returned")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

func (r *projectRepository) List(ctx context.Context) ([]entity.Project, error) {
	q, args := r.builder().
		Select("id", "project_name", "responsible_person", "created_at").
		From(entsql.Table(ProjectsTable.Name)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()
	projects, err := r.queryProjects(ctx, q, args)
	if err != nil {
		r.logger.Error("repo.project.list_failed", "error", err)
		return nil, err
	}
	if err := r.attachItems(ctx, projects); err != nil {
		r.logger.Error("repo.project.list_failed", "error", err)
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) Get(ctx context.Context, id int64) (entity.Project, error) {
	q, args := r.builder().
		Select("id", "project_name", "responsible_person", "created_at").
		From(entsql.Table(ProjectsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()
	projects, err := r.queryProjects(ctx, q, args)
	if err != nil {
		r.logger.Error("repo.project.get_failed", "project_id", id, "error", err)
		return entity.Project{}, err
	}
	if len(projects) == 0 {
		return entity.Project{}, fmt.Errorf("project %d: %w", id, common.ErrNotFound)
	}
	if err := r.attachItems(ctx, projects); err != nil {
		r.logger.Error("repo.project.get_failed", "project_id", id, "error", err)
		return entity.Project{}, err
	}
	return projects[0], nil
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	q, args := r.builder().Delete(ProjectsTable.Name).Where(entsql.EQ("id", id)).Query()
	var res sql.Result
	if err := r.db.Driver().Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("repo.project.delete_failed", "project_id", id, "error", err)
		return fmt.Errorf("%w: delete project: %v", common.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete project: %v", common.ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("project %d: %w", id, common.ErrNotFound)
	}
	r.logger.Info("repo.project.deleted", "project_id", id)
	return nil
}

func (r *projectRepository) queryProjects(ctx context.Context, q string, args []any) ([]entity.Project, error) {
	var rows entsql.Rows
	if err := r.db.Driver().Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query projects: %v", common.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	projects := []entity.Project{}
	for rows.Next() {
		var p entity.Project
		if err := rows.Scan(&p.ID, &p.ProjectName, &p.ResponsiblePerson, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan project: %v", common.ErrPersistence, err)
		}
		p.BudgetItems = []entity.BudgetItem{}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query projects: %v", common.ErrPersistence, err)
	}
	return projects, nil
}

// attachItems loads the items of all given projects with one query.
func (r *projectRepository) attachItems(ctx context.Context, projects []entity.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]any, len(projects))
	index := make(map[int64]int, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		index[p.ID] = i
	}

	q, args := r.builder().
		Select("project_id", "activity_name", "description", "amount").
		From(entsql.Table(BudgetItemsTable.Name)).
		Where(entsql.In("project_id", ids...)).
		OrderBy(entsql.Asc("id")).
		Query()
	var rows entsql.Rows
	if err := r.db.Driver().Query(ctx, q, args, &rows); err != nil {
		return fmt.Errorf("%w: query budget items: %v", common.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			projectID int64
			item      entity.BudgetItem
		)
		if err := rows.Scan(&projectID, &item.ActivityName, &item.Description, &item.Amount); err != nil {
			return fmt.Errorf("%w: scan budget item: %v", common.ErrPersistence, err)
		}
		if i, ok := index[projectID]; ok {
			projects[i].BudgetItems = append(projects[i].BudgetItems, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: query budget items: %v", common.ErrPersistence, err)
	}
	return nil
}
