// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/errs"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	TokenType   string    // always "bearer"
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

// The only accepted task statuses. Matching is exact and case-sensitive.
const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: status %q is not one of %q, %q, %q",
			errs.ErrValidation, raw, StatusPending, StatusInProgress, StatusCompleted)
	}
	return s, nil
}

// TaskFields is the client-editable part of a task.
type TaskFields struct {
	Title       string
	Description string
	Status      TaskStatus
}

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID      uuid.UUID // server-generated PK
	OwnerID uuid.UUID // FK -> users.id
	TaskFields
}

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique, case-sensitive
	PwdHash   string    // bcrypt digest
	CreatedAt time.Time
}
