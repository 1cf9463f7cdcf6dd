package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/model"
	"github.com/and161185/task-manager/internal/repository"
)

type fakeTasks struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]model.Task
	order []uuid.UUID

	err error
}

var _ repository.TaskRepository = (*fakeTasks)(nil)

func newFakeTasks() *fakeTasks { return &fakeTasks{byID: map[uuid.UUID]model.Task{}} }

func (f *fakeTasks) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Task{}
	for _, id := range f.order {
		if t, ok := f.byID[id]; ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (f *fakeTasks) Create(_ context.Context, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.byID[t.ID] = *t
	f.order = append(f.order, t.ID)
	return nil
}
func (f *fakeTasks) Get(_ context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}
func (f *fakeTasks) Replace(_ context.Context, ownerID, id uuid.UUID, fl model.TaskFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	t.TaskFields = fl
	f.byID[id] = t
	return nil
}
func (f *fakeTasks) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func TestTasks_CRUD(t *testing.T) {
	t.Parallel()

	repo := newFakeTasks()
	s := NewTaskService(repo)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())

	list, err := s.List(ctx, owner)
	if err != nil || len(list) != 0 {
		t.Fatalf("empty list: %v %v", list, err)
	}

	created, err := s.Create(ctx, owner, model.TaskFields{Title: "a", Description: "b", Status: model.StatusPending})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil || created.OwnerID != owner {
		t.Fatalf("bad created task: %+v", created)
	}

	got, err := s.Get(ctx, owner, created.ID)
	if err != nil || got.Title != "a" {
		t.Fatalf("Get: %+v %v", got, err)
	}

	upd := model.TaskFields{Title: "a2", Description: "", Status: model.StatusCompleted}
	if err := s.Replace(ctx, owner, created.ID, upd); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, _ = s.Get(ctx, owner, created.ID)
	if got.TaskFields != upd {
		t.Fatalf("replace not applied: %+v", got)
	}

	if err := s.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, owner, created.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, owner, created.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestTasks_CrossOwnerIsolation(t *testing.T) {
	t.Parallel()

	s := NewTaskService(newFakeTasks())
	ctx := context.Background()
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())

	task, err := s.Create(ctx, alice, model.TaskFields{Title: "secret", Status: model.StatusPending})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Get(ctx, bob, task.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("bob Get: want ErrNotFound, got %v", err)
	}
	if err := s.Replace(ctx, bob, task.ID, model.TaskFields{Title: "pwned", Status: model.StatusCompleted}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("bob Replace: want ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, bob, task.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("bob Delete: want ErrNotFound, got %v", err)
	}
	if l, _ := s.List(ctx, bob); len(l) != 0 {
		t.Fatalf("bob sees alice's tasks: %+v", l)
	}

	got, err := s.Get(ctx, alice, task.ID)
	if err != nil || got.Title != "secret" || got.Status != model.StatusPending {
		t.Fatalf("alice's task changed: %+v %v", got, err)
	}
}

func TestTasks_Validation(t *testing.T) {
	t.Parallel()

	repo := newFakeTasks()
	s := NewTaskService(repo)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())

	if _, err := s.Create(ctx, owner, model.TaskFields{Title: "x", Status: "Done"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("invalid task must not be stored")
	}

	task, _ := s.Create(ctx, owner, model.TaskFields{Title: "x", Status: model.StatusPending})
	if err := s.Replace(ctx, owner, task.ID, model.TaskFields{Status: "pending"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on replace, got %v", err)
	}

	if _, err := s.List(ctx, uuid.Nil); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for nil owner, got %v", err)
	}
}

func TestTasks_RepoErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := newFakeTasks()
	repo.err = errors.New("db down")
	s := NewTaskService(repo)
	owner := uuid.Must(uuid.NewV4())

	if _, err := s.List(context.Background(), owner); err == nil {
		t.Fatalf("want repo error")
	}
	if _, err := s.Create(context.Background(), owner, model.TaskFields{Status: model.StatusPending}); err == nil {
		t.Fatalf("want repo error")
	}
}
