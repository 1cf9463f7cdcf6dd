package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/model"
)

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

// ListByOwner returns the owner's tasks in creation order.
func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	const q = `
SELECT id, owner_id, title, description, status
FROM tasks
WHERE owner_id=$1
ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create inserts a new task row.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, owner_id, title, description, status)
VALUES ($1, $2, $3, $4, $5)`
	// ids are server-generated, so a collision surfaces as an internal error
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.OwnerID, t.Title, t.Description, string(t.Status))
	return err
}

// Get returns a task by (owner, id).
func (r *TaskRepo) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	const q = `
SELECT id, owner_id, title, description, status
FROM tasks
WHERE id=$1 AND owner_id=$2`
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, taskID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return t, err
}

// Replace overwrites title, description and status of the owner's task.
func (r *TaskRepo) Replace(ctx context.Context, ownerID, taskID uuid.UUID, f model.TaskFields) error {
	const q = `
UPDATE tasks
SET title=$3, description=$4, status=$5, updated_at=now()
WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, ownerID, f.Title, f.Description, string(f.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the owner's task.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	const q = `DELETE FROM tasks WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// scanTask reads one row and rejects statuses outside the known set.
func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t      model.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &status); err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	if !t.Status.Valid() {
		return nil, fmt.Errorf("task %s: status %q: %w", t.ID, status, errs.ErrCorruptRecord)
	}
	return &t, nil
}
