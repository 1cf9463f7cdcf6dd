// Package convert maps between JSON wire DTOs and domain models.
package convert

import (
	"fmt"

	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/model"
)

// --- requests (client -> server) ---

// CredentialsRequest is the body of /api/register and /api/login.
// Pointers distinguish a missing field from an empty one.
type CredentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// TaskRequest is the body of POST /api/tasks and PUT /api/tasks/{id}.
type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// --- responses (server -> client) ---

// UserResponse is returned by /api/register.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TokenResponse is returned by /api/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TaskResponse is a single task as seen by its owner.
type TaskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// MessageResponse acknowledges update and delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func missing(field string) error {
	return fmt.Errorf("%w: field %q is required", errs.ErrValidation, field)
}

// Credentials extracts username and password, requiring both fields to be present.
func Credentials(in CredentialsRequest) (username, password string, err error) {
	if in.Username == nil {
		return "", "", missing("username")
	}
	if in.Password == nil {
		return "", "", missing("password")
	}
	return *in.Username, *in.Password, nil
}

// TaskFieldsFromRequest validates presence of all fields and the status literal.
func TaskFieldsFromRequest(in TaskRequest) (model.TaskFields, error) {
	switch {
	case in.Title == nil:
		return model.TaskFields{}, missing("title")
	case in.Description == nil:
		return model.TaskFields{}, missing("description")
	case in.Status == nil:
		return model.TaskFields{}, missing("status")
	}
	st, err := model.ParseTaskStatus(*in.Status)
	if err != nil {
		return model.TaskFields{}, err
	}
	return model.TaskFields{Title: *in.Title, Description: *in.Description, Status: st}, nil
}

// ToUserResponse converts a stored user into its public view.
func ToUserResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Username: u.Username}
}

// ToTokenResponse converts issued tokens into the login answer.
func ToTokenResponse(t model.Tokens) TokenResponse {
	typ := t.TokenType
	if typ == "" {
		typ = "bearer"
	}
	return TokenResponse{AccessToken: t.AccessToken, TokenType: typ}
}

// ToTaskResponse converts a domain task; the owner is implied by the caller and omitted.
func ToTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
	}
}

// ToTaskResponses converts a slice; the result is never nil so it encodes as [].
func ToTaskResponses(in []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(in))
	for _, t := range in {
		out = append(out, ToTaskResponse(t))
	}
	return out
}
