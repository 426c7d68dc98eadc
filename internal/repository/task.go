package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachtrack/teachtrack/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "title", "description", "status", "admin_approval",
	"assigned_to", "created_by", "created_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AdminApproval,
		&task.AssignedTo,
		&task.CreatedBy,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Claim atomically assigns a pending task to a teacher and moves it to
// accepted. The write only commits if the row is still pending and either
// unassigned or already assigned to the same teacher; a plain read-then-write
// would let two concurrent claims overwrite each other.
// Returns ErrTaskAlreadyClaimed if the conditional update matched no row.
func (r *TaskRepository) Claim(ctx context.Context, tx pgx.Tx, taskID, teacherID string) error {
	query, args, err := psql.
		Update("tasks").
		Set("assigned_to", teacherID).
		Set("status", domain.TaskStatusAccepted).
		Where(sq.Eq{
			"id":     taskID,
			"status": domain.TaskStatusPending,
		}).
		Where(sq.Or{
			sq.Eq{"assigned_to": nil},
			sq.Eq{"assigned_to": teacherID},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Claim query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("claim task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskAlreadyClaimed
	}

	return nil
}

// UpdateStatus updates the task status with optimistic locking.
// Returns ErrConcurrentUpdate if the row no longer holds oldStatus.
func (r *TaskRepository) UpdateStatus(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	oldStatus domain.TaskStatus,
	newStatus domain.TaskStatus,
) error {
	query, args, err := psql.
		Update("tasks").
		Set("status", newStatus).
		Where(sq.Eq{
			"id":     taskID,
			"status": oldStatus,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateStatus query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	return nil
}

// TaskPatch holds the partial-update fields for UpdateFields. Nil pointers
// mean "leave unchanged"; ClearAssignee clears assigned_to explicitly.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *domain.TaskStatus
	AssignedTo    *string
	ClearAssignee bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.AssignedTo == nil && !p.ClearAssignee
}

// UpdateFields applies a partial update, guarded on the status observed at
// read time. Returns ErrConcurrentUpdate if the row changed underneath.
func (r *TaskRepository) UpdateFields(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	oldStatus domain.TaskStatus,
	patch TaskPatch,
) error {
	qb := psql.Update("tasks")
	if patch.Title != nil {
		qb = qb.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		qb = qb.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		qb = qb.Set("status", *patch.Status)
	}
	if patch.ClearAssignee {
		qb = qb.Set("assigned_to", nil)
	} else if patch.AssignedTo != nil {
		qb = qb.Set("assigned_to", *patch.AssignedTo)
	}

	query, args, err := qb.
		Where(sq.Eq{
			"id":     taskID,
			"status": oldStatus,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateFields query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task fields: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	return nil
}

// SetApproval records the admin decision on a completed task. The write is
// conditional on status still being completed and no prior decision existing.
func (r *TaskRepository) SetApproval(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	decision domain.ApprovalDecision,
) error {
	query, args, err := psql.
		Update("tasks").
		Set("admin_approval", decision).
		Where(sq.Eq{
			"id":             taskID,
			"status":         domain.TaskStatusCompleted,
			"admin_approval": nil,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build SetApproval query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set task approval: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	return nil
}

// Delete removes a task unconditionally. Returns ErrTaskNotFound if no row
// matched. time_logs referencing the task keep their history (task_id is
// nulled by the foreign key).
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// TaskListFilters holds the supported filters for task listing.
type TaskListFilters struct {
	// VisibleToTeacher scopes the list to tasks assigned to the given
	// teacher plus the unclaimed pool. Nil means no scoping (admin view).
	VisibleToTeacher *string
}

// List retrieves tasks ordered by creation time, most recent first.
func (r *TaskRepository) List(ctx context.Context, filters TaskListFilters) ([]*domain.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks")

	if filters.VisibleToTeacher != nil {
		qb = qb.Where(sq.Or{
			sq.Eq{"assigned_to": nil},
			sq.Eq{"assigned_to": *filters.VisibleToTeacher},
		})
	}

	qb = qb.OrderBy("created_at DESC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// Create creates a new task. Returns the task with ID, Status, and CreatedAt populated.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query, args, err := psql.
		Insert("tasks").
		Columns("title", "description", "assigned_to", "created_by").
		Values(task.Title, task.Description, task.AssignedTo, task.CreatedBy).
		Suffix("RETURNING id, status, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&task.ID, &task.Status, &task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}
