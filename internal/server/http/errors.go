package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/task-manager/internal/convert"
	"github.com/and161185/task-manager/internal/errs"
)

type errorMapping struct {
	target error
	status int
	detail string // empty: use the error text
}

// Order matters: wrapped chains may carry several sentinels.
var errorTable = []errorMapping{
	{errs.ErrValidation, http.StatusUnprocessableEntity, ""},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "Too many failed login attempts, try again later"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "Invalid credentials"},
	{errs.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{errs.ErrAlreadyExists, http.StatusBadRequest, "Username already exists"},
	{errs.ErrNotFound, http.StatusNotFound, "Task not found"},
}

func isAuthError(err error) bool {
	return errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrInvalidToken)
}

// respondError writes the JSON error for err; unknown errors are logged and hidden behind a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := m.detail
		if detail == "" {
			detail = err.Error()
		}
		if m.status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		c.AbortWithStatusJSON(m.status, convert.ErrorResponse{Detail: detail})
		return
	}
	log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, convert.ErrorResponse{Detail: "internal error"})
}
