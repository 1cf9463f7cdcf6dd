package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/convert"
	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/model"
)

// --- Auth ---

// register creates a new user account.
func (s *Server) register(c *gin.Context) {
	username, password, ok := s.bindCredentials(c)
	if !ok {
		return
	}
	u, err := s.auth.Register(c.Request.Context(), username, password)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToUserResponse(*u))
}

// login authenticates a user and returns a bearer token.
func (s *Server) login(c *gin.Context) {
	username, password, ok := s.bindCredentials(c)
	if !ok {
		return
	}
	tok, err := s.auth.Login(c.Request.Context(), username, password, c.ClientIP())
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToTokenResponse(tok))
}

func (s *Server) bindCredentials(c *gin.Context) (string, string, bool) {
	var req convert.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return "", "", false
	}
	username, password, err := convert.Credentials(req)
	if err != nil {
		respondError(c, s.log, err)
		return "", "", false
	}
	return username, password, true
}

// --- Tasks ---

// listTasks returns every task of the caller.
func (s *Server) listTasks(c *gin.Context) {
	u := mustUser(c)
	ts, err := s.tasks.List(c.Request.Context(), u.ID)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToTaskResponses(ts))
}

// createTask stores a new task for the caller.
func (s *Server) createTask(c *gin.Context) {
	u := mustUser(c)
	f, ok := s.bindTask(c)
	if !ok {
		return
	}
	t, err := s.tasks.Create(c.Request.Context(), u.ID, f)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToTaskResponse(*t))
}

// getTask returns one task of the caller.
func (s *Server) getTask(c *gin.Context) {
	u := mustUser(c)
	id, ok := s.taskID(c)
	if !ok {
		return
	}
	t, err := s.tasks.Get(c.Request.Context(), u.ID, id)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToTaskResponse(*t))
}

// replaceTask overwrites one task of the caller.
func (s *Server) replaceTask(c *gin.Context) {
	u := mustUser(c)
	id, ok := s.taskID(c)
	if !ok {
		return
	}
	f, ok := s.bindTask(c)
	if !ok {
		return
	}
	if err := s.tasks.Replace(c.Request.Context(), u.ID, id, f); err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.MessageResponse{Message: "Task updated"})
}

// deleteTask removes one task of the caller.
func (s *Server) deleteTask(c *gin.Context) {
	u := mustUser(c)
	id, ok := s.taskID(c)
	if !ok {
		return
	}
	if err := s.tasks.Delete(c.Request.Context(), u.ID, id); err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, convert.MessageResponse{Message: "Task deleted"})
}

// taskID parses the path id; an id that cannot exist is reported as not found.
func (s *Server) taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, s.log, errs.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) bindTask(c *gin.Context) (model.TaskFields, bool) {
	var req convert.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return model.TaskFields{}, false
	}
	f, err := convert.TaskFieldsFromRequest(req)
	if err != nil {
		respondError(c, s.log, err)
		return model.TaskFields{}, false
	}
	return f, true
}

// mustUser returns the user stored by RequireAuth; routes without it are a wiring bug.
func mustUser(c *gin.Context) *model.User {
	u, ok := UserFromCtx(c.Request.Context())
	if !ok {
		panic("httpserver: task route registered without RequireAuth")
	}
	return u
}
