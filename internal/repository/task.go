package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck-go/pkg/model"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrInvalidSortBy  = errors.New("invalid sort_by field")
	ErrInvalidSortDir = errors.New("invalid sort_order, must be asc or desc")
)

// sortColumns is the fixed allow-list of sortable fields. Caller-supplied
// sort names are resolved through this map and never interpolated into SQL.
var sortColumns = map[string]string{
	"title":        "title",
	"due_date":     "due_date",
	"priority":     "priority",
	"manual_order": "manual_order",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// TaskQuery controls filtering, sorting, and pagination for task listings.
// Nil filter pointers mean "no filter". Query is matched case-insensitively
// as a substring of the title; empty means no title filter.
type TaskQuery struct {
	Query       string
	IsCompleted *bool
	Priority    *model.Priority
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

const taskColumns = `id, user_id, title, description, due_date, priority, is_completed, manual_order, created_at, updated_at`

// TaskRepository handles task persistence operations. Every query is scoped
// to the owning user in the same predicate that locates the row, so a task
// belonging to someone else is indistinguishable from a missing one.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the page of tasks matching q for the given owner, plus the
// total number of matches disregarding limit/offset.
func (r *TaskRepository) List(ctx context.Context, userID string, q TaskQuery) ([]model.Task, int, error) {
	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		return nil, 0, ErrInvalidSortBy
	}
	dir := strings.ToUpper(q.SortOrder)
	if dir != "ASC" && dir != "DESC" {
		return nil, 0, ErrInvalidSortDir
	}

	conditions := []string{"user_id = ?"}
	args := []any{userID}

	if q.Query != "" {
		conditions = append(conditions, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Query)+"%")
	}
	if q.IsCompleted != nil {
		conditions = append(conditions, "is_completed = ?")
		args = append(args, *q.IsCompleted)
	}
	if q.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *q.Priority)
	}

	where := strings.Join(conditions, " AND ")

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM tasks WHERE " + where)
	var count int
	if err := r.db.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, err
	}

	// sortCol and dir come from fixed allow-lists above, never caller text.
	dataQuery := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		taskColumns, where, sortCol, dir,
	))
	args = append(args, q.Limit, q.Offset)

	tasks := []model.Task{}
	if err := r.db.SelectContext(ctx, &tasks, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return tasks, count, nil
}

// GetByID retrieves a task by id, scoped to the owning user.
func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (*model.Task, error) {
	query := r.db.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?")

	task := &model.Task{}
	if err := r.db.GetContext(ctx, task, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

// Create inserts a new task, generating its id and timestamps. The caller's
// manual_order value is persisted verbatim.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO tasks
		(id, user_id, title, description, due_date, priority, is_completed, manual_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.DueDate,
		task.Priority, task.IsCompleted, task.ManualOrder, task.CreatedAt, task.UpdatedAt)
	return err
}

// Update applies a sparse patch to a task, scoped to the owning user, and
// returns the resulting row. Absent fields are left unchanged; updated_at is
// always refreshed. Returns ErrTaskNotFound when no owned row matches.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch model.UpdateTaskRequest) (*model.Task, error) {
	var sets []string
	var args []any

	if patch.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, patch.Title.Value)
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullable(patch.Description))
	}
	if patch.DueDate.Set {
		sets = append(sets, "due_date = ?")
		args = append(args, nullable(patch.DueDate))
	}
	if patch.Priority.Set {
		sets = append(sets, "priority = ?")
		args = append(args, patch.Priority.Value)
	}
	if patch.IsCompleted.Set {
		sets = append(sets, "is_completed = ?")
		args = append(args, patch.IsCompleted.Value)
	}
	if patch.ManualOrder.Set {
		sets = append(sets, "manual_order = ?")
		args = append(args, patch.ManualOrder.Value)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id, userID)

	query := r.db.Rebind(fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = ? AND user_id = ? RETURNING %s",
		strings.Join(sets, ", "), taskColumns,
	))

	task := &model.Task{}
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

// Delete removes a task, scoped to the owning user. The outcome is binary:
// deleted, or ErrTaskNotFound covering both missing and not-owned rows.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// BeginTx starts a database transaction for a reorder batch.
func (r *TaskRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// UpdateOrderTx sets one task's manual_order within the transaction, scoped
// to the owning user. Reports whether a row was actually updated so the
// coordinator can skip ids that are missing or not owned by the caller.
func (r *TaskRepository) UpdateOrderTx(ctx context.Context, tx *sqlx.Tx, userID, id string, order int) (bool, error) {
	query := tx.Rebind(`UPDATE tasks SET manual_order = ?, updated_at = ? WHERE id = ? AND user_id = ?`)

	result, err := tx.ExecContext(ctx, query, order, time.Now().UTC(), id, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListOrdered returns the user's full task list ordered by manual_order
// ascending, the canonical order after a reorder batch commits.
func (r *TaskRepository) ListOrdered(ctx context.Context, userID string) ([]model.Task, error) {
	query := r.db.Rebind("SELECT " + taskColumns + " FROM tasks WHERE user_id = ? ORDER BY manual_order ASC")

	tasks := []model.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, err
	}
	return tasks, nil
}

// nullable maps an Optional carrying an explicit JSON null to a SQL NULL.
func nullable[T any](o model.Optional[T]) any {
	if o.Null {
		return nil
	}
	return o.Value
}
