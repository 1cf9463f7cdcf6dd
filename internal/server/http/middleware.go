package httpserver

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/task-manager/internal/convert"
	"github.com/and161185/task-manager/internal/service"
)

// Logging returns middleware that logs request metadata (never bodies).
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recover returns middleware that turns panics into 500 responses.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, convert.ErrorResponse{Detail: "internal error"})
			}
		}()
		c.Next()
	}
}

// RequireAuth resolves "Authorization: Bearer <token>" to a user and stores it in the request context.
func RequireAuth(auth service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, "Not authenticated")
			return
		}
		u, err := auth.Resolve(c.Request.Context(), tok)
		if err != nil {
			if isAuthError(err) {
				log.Debug("token rejected", zap.Error(err))
				unauthorized(c, "Invalid token")
				return
			}
			log.Error("resolve user", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, convert.ErrorResponse{Detail: "internal error"})
			return
		}
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), u))
		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, convert.ErrorResponse{Detail: detail})
}

func bearerToken(header string) (string, error) {
	v := strings.TrimSpace(header)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errors.New("no bearer token")
}
