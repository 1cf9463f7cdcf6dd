package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/model"
	"github.com/and161185/task-manager/internal/repository"
)

// TaskService defines owner-scoped task operations.
type TaskService interface {
	// List returns every task of the owner.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)
	// Create stores a new task and returns it with its generated ID.
	Create(ctx context.Context, ownerID uuid.UUID, f model.TaskFields) (*model.Task, error)
	// Get returns one task of the owner.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	// Replace overwrites all fields of one task of the owner.
	Replace(ctx context.Context, ownerID, id uuid.UUID, f model.TaskFields) error
	// Delete removes one task of the owner.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type TaskServiceImpl struct {
	repo repository.TaskRepository
}

// NewTaskService constructs TaskService.
func NewTaskService(repo repository.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

func validateFields(f model.TaskFields) error {
	if !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrValidation, f.Status)
	}
	return nil
}

func requireOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return fmt.Errorf("%w: empty owner", errs.ErrUnauthorized)
	}
	return nil
}

// List returns the owner's tasks.
func (s *TaskServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Create validates fields, assigns an ID and stores the task.
func (s *TaskServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, f model.TaskFields) (*model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := validateFields(f); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Task{ID: id, OwnerID: ownerID, TaskFields: f}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the owner's task or errs.ErrNotFound.
func (s *TaskServiceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Replace validates fields and overwrites the owner's task.
func (s *TaskServiceImpl) Replace(ctx context.Context, ownerID, id uuid.UUID, f model.TaskFields) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := validateFields(f); err != nil {
		return err
	}
	return s.repo.Replace(ctx, ownerID, id, f)
}

// Delete removes the owner's task or reports errs.ErrNotFound.
func (s *TaskServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, ownerID, id)
}
