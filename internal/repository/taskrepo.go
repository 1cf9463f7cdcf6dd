package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/model"
)

// TaskRepository provides owner-scoped access to tasks.
// Every method filters by owner; a task of another owner behaves as absent.
type TaskRepository interface {
	// ListByOwner returns all tasks of the owner (empty, never nil).
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)

	// Create inserts a new task.
	Create(ctx context.Context, t *model.Task) error

	// Get returns a single task by ID.
	Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)

	// Replace overwrites all editable fields of a task.
	Replace(ctx context.Context, ownerID, taskID uuid.UUID, f model.TaskFields) error

	// Delete removes a task.
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
}
